// Command json2mci encodes a JSON array of flat records into an IPM
// clearing file, the inverse of mci2json.
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
	outEncoding := flag.String("out-encoding", "cp500", "character encoding of the output IPM file")
	no1014 := flag.Bool("no1014blocking", false, "emit raw VBS, not 1014-block framed")
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
	enc, err := encoding.Lookup(*outEncoding)
	if err != nil {
		log.Fatalf("# Error: %v\n", err)
	}

	in, err := os.Open(inFilename)
	if err != nil {
		log.Fatalf("# Error opening %s: %v\n", inFilename, err)
	}
	defer in.Close()

	var records []record.Record
	if err := json.NewDecoder(in).Decode(&records); err != nil {
		log.Fatalf("# Error parsing JSON: %v\n", err)
	}

	var out io.Writer = os.Stdout
	if *outFilename != "" {
		f, err := os.Create(*outFilename)
		if err != nil {
			log.Fatalf("# Error creating %s: %v\n", *outFilename, err)
		}
		defer f.Close()
		out = f
	}

	writer := ipm.NewWriter(out, cfg, enc, ipm.WriterOptions{
		Blocked1014:   !*no1014,
		EncodeOptions: iso8583.EncodeOptions{HexBin: true},
	})

	for i, rec := range records {
		if err := writer.Write(rec); err != nil {
			log.Fatalf("# Error encoding record %d: %v\n", i+1, err)
		}
	}
	if err := writer.Finalise(); err != nil {
		log.Fatalf("# Error finalising output: %v\n", err)
	}
	fmt.Fprintf(os.Stderr, "# Wrote %d records\n", len(records))
}
