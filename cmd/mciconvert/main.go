// Command mciconvert rewrites an IPM clearing file from one character
// encoding to another, passing binary-typed field bytes through untouched.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/adelosa/go-cardutil/buildinfo"
	"github.com/adelosa/go-cardutil/config"
	"github.com/adelosa/go-cardutil/encoding"
	"github.com/adelosa/go-cardutil/ipm"
)

func main() {
	outFilename := flag.String("o", "", "output file (required)")
	flag.StringVar(outFilename, "out-filename", "", "output file (required)")
	inEncoding := flag.String("in-encoding", "cp500", "character encoding of the input IPM file")
	outEncoding := flag.String("out-encoding", "latin-1", "character encoding of the output IPM file")
	no1014 := flag.Bool("no1014blocking", false, "treat input/output as raw VBS, not 1014-block framed")
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
	if *outFilename == "" {
		log.Fatal("# missing -o/--out-filename")
	}
	inFilename := flag.Arg(0)

	cfg, err := config.Resolve(*configFile)
	if err != nil {
		log.Fatalf("# Error loading config: %v\n", err)
	}
	inEnc, err := encoding.Lookup(*inEncoding)
	if err != nil {
		log.Fatalf("# Error: %v\n", err)
	}
	outEnc, err := encoding.Lookup(*outEncoding)
	if err != nil {
		log.Fatalf("# Error: %v\n", err)
	}

	in, err := os.Open(inFilename)
	if err != nil {
		log.Fatalf("# Error opening %s: %v\n", inFilename, err)
	}
	defer in.Close()

	out, err := os.Create(*outFilename)
	if err != nil {
		log.Fatalf("# Error creating %s: %v\n", *outFilename, err)
	}
	defer out.Close()

	count, err := ipm.Convert(in, out, cfg, inEnc, outEnc, ipm.ConvertOptions{Blocked1014: !*no1014})
	if err != nil {
		log.Fatalf("# Error converting record %d: %v\n", count+1, err)
	}
	fmt.Fprintf(os.Stderr, "# Converted %d records from %s to %s\n", count, *inEncoding, *outEncoding)
}
