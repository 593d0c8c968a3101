// Command mci2json decodes an IPM clearing file into a stream of flat
// JSON records, one array entry per ISO 8583 message.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/adelosa/go-cardutil/buildinfo"
	"github.com/adelosa/go-cardutil/config"
	"github.com/adelosa/go-cardutil/encoding"
	"github.com/adelosa/go-cardutil/ipm"
	"github.com/adelosa/go-cardutil/iso8583"
	"github.com/adelosa/go-cardutil/record"
)

func main() {
	outFilename := flag.String("o", "", "output file (default stdout)")
	flag.StringVar(outFilename, "out-filename", "", "output file (default stdout)")
	inEncoding := flag.String("in-encoding", "cp500", "character encoding of the input IPM file")
	no1014 := flag.Bool("no1014blocking", false, "treat input as raw VBS, not 1014-block framed")
	configFile := flag.String("config-file", "", "path to cardutil.json (default: CARDUTIL_CONFIG or built-in)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println(buildinfo.Version)
		return
	}

	if flag.NArg() < 1 {
		log.Fatal("# missing in_filename")
	}
	inFilename := flag.Arg(0)

	cfg, err := config.Resolve(*configFile)
	if err != nil {
		log.Fatalf("# Error loading config: %v\n", err)
	}
	enc, err := encoding.Lookup(*inEncoding)
	if err != nil {
		log.Fatalf("# Error: %v\n", err)
	}

	in, err := os.Open(inFilename)
	if err != nil {
		log.Fatalf("# Error opening %s: %v\n", inFilename, err)
	}
	defer in.Close()

	var out io.Writer = os.Stdout
	if *outFilename != "" {
		f, err := os.Create(*outFilename)
		if err != nil {
			log.Fatalf("# Error creating %s: %v\n", *outFilename, err)
		}
		defer f.Close()
		out = f
	}

	reader := ipm.NewReader(in, cfg, enc, ipm.ReaderOptions{
		Blocked1014:   !*no1014,
		DecodeOptions: iso8583.DecodeOptions{HexBin: true},
	})
	defer reader.Close()

	records := make([]record.Record, 0)
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("# Error decoding record %d: %v\n", len(records)+1, err)
		}
		records = append(records, rec)
	}

	jsonEnc := json.NewEncoder(out)
	jsonEnc.SetIndent("", "  ")
	if err := jsonEnc.Encode(records); err != nil {
		log.Fatalf("# Error writing JSON: %v\n", err)
	}
	fmt.Fprintf(os.Stderr, "# Wrote %d records\n", len(records))
}
