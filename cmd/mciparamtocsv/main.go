// Command mciparamtocsv extracts rows from an IPM parameter file matching
// a given table_id into CSV, one row per matched parameter record.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/adelosa/go-cardutil/buildinfo"
	"github.com/adelosa/go-cardutil/config"
	"github.com/adelosa/go-cardutil/encoding"
	"github.com/adelosa/go-cardutil/ipm"
	"github.com/adelosa/go-cardutil/iso8583"
	"github.com/adelosa/go-cardutil/paramtable"
)

func main() {
	outFilename := flag.String("o", "", "output file (default stdout)")
	flag.StringVar(outFilename, "out-filename", "", "output file (default stdout)")
	inEncoding := flag.String("in-encoding", "cp500", "character encoding of the input IPM parameter file")
	no1014 := flag.Bool("no1014blocking", false, "treat input as raw VBS, not 1014-block framed")
	configFile := flag.String("config-file", "", "path to cardutil.json (default: CARDUTIL_CONFIG or built-in)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println(buildinfo.Version)
		return
	}

	cfg, err := config.Resolve(*configFile)
	if err != nil {
		log.Fatalf("# Error loading config: %v\n", err)
	}

	if flag.NArg() < 1 {
		printKnownTableIDs(cfg)
		log.Fatal("# missing in_filename")
	}
	inFilename := flag.Arg(0)

	if flag.NArg() < 2 {
		printKnownTableIDs(cfg)
		log.Fatal("# missing table_id")
	}
	tableID := flag.Arg(1)

	layout, ok := cfg.MciParameterTables[tableID]
	if !ok {
		printKnownTableIDs(cfg)
		log.Fatalf("# unknown table_id %q\n", tableID)
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

	reader := ipm.NewReader(in, cfg, enc, ipm.ReaderOptions{
		Blocked1014:   !*no1014,
		DecodeOptions: iso8583.DecodeOptions{HexBin: true},
	})
	defer reader.Close()

	rows, err := paramtable.Extract(reader, layout, tableID)
	if err != nil {
		log.Fatalf("# Error extracting rows: %v\n", err)
	}

	out := os.Stdout
	if *outFilename != "" {
		f, err := os.Create(*outFilename)
		if err != nil {
			log.Fatalf("# Error creating %s: %v\n", *outFilename, err)
		}
		defer f.Close()
		out = f
	}

	columns := layout.ColumnNames()
	w := csv.NewWriter(out)
	if err := w.Write(columns); err != nil {
		log.Fatalf("# Error writing CSV header: %v\n", err)
	}
	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = row[col].String()
		}
		if err := w.Write(record); err != nil {
			log.Fatalf("# Error writing CSV row: %v\n", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("# Error flushing CSV: %v\n", err)
	}
	fmt.Fprintf(os.Stderr, "# Wrote %d rows for table_id %s\n", len(rows), tableID)
}

func printKnownTableIDs(cfg *config.Config) {
	ids := paramtable.ListTableIDs(cfg.MciParameterTables)
	fmt.Printf("# Known table_id values:\n")
	for _, id := range ids {
		fmt.Printf("# %s\n", id)
	}
}
