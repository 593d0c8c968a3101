// Command cardutil exposes the four IPM/ISO 8583 tools (mci2json, json2mci,
// mciconvert, mciparamtocsv) as subcommands of a single multi-command CLI
// app.
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/adelosa/go-cardutil/buildinfo"
	"github.com/adelosa/go-cardutil/config"
	"github.com/adelosa/go-cardutil/encoding"
	"github.com/adelosa/go-cardutil/ipm"
	"github.com/adelosa/go-cardutil/iso8583"
	"github.com/adelosa/go-cardutil/paramtable"
	"github.com/adelosa/go-cardutil/record"
)

var (
	inEncodingFlag  = &cli.StringFlag{Name: "in-encoding", Value: "cp500", Usage: "character encoding of the input file"}
	outEncodingFlag = &cli.StringFlag{Name: "out-encoding", Value: "cp500", Usage: "character encoding of the output file"}
	outFilenameFlag = &cli.StringFlag{Name: "out-filename", Aliases: []string{"o"}, Usage: "output file (default stdout)"}
	no1014Flag      = &cli.BoolFlag{Name: "no1014blocking", Usage: "treat file as raw VBS, not 1014-block framed"}
	configFileFlag  = &cli.StringFlag{Name: "config-file", Usage: "path to cardutil.json (default: CARDUTIL_CONFIG or built-in)"}
)

func main() {
	app := &cli.App{
		Name:    "cardutil",
		Usage:   "ISO 8583 / IPM clearing file toolkit",
		Version: buildinfo.Version,
		Commands: []*cli.Command{
			ipm2jsonCommand(),
			json2ipmCommand(),
			convertCommand(),
			paramToCSVCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "# Error: %v\n", err)
		os.Exit(1)
	}
}

func openOutput(c *cli.Context) (io.Writer, func(), error) {
	name := c.String(outFilenameFlag.Name)
	if name == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func ipm2jsonCommand() *cli.Command {
	return &cli.Command{
		Name:  "ipm2json",
		Usage: "decode an IPM file into a JSON array of flat records",
		Flags: []cli.Flag{inEncodingFlag, outFilenameFlag, no1014Flag, configFileFlag},
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 1 {
				return cli.Exit("missing in_filename", 1)
			}
			cfg, err := config.Resolve(c.String(configFileFlag.Name))
			if err != nil {
				return err
			}
			enc, err := encoding.Lookup(c.String(inEncodingFlag.Name))
			if err != nil {
				return err
			}
			in, err := os.Open(c.Args().Get(0))
			if err != nil {
				return err
			}
			defer in.Close()

			out, closeOut, err := openOutput(c)
			if err != nil {
				return err
			}
			defer closeOut()

			reader := ipm.NewReader(in, cfg, enc, ipm.ReaderOptions{
				Blocked1014:   !c.Bool(no1014Flag.Name),
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
					return err
				}
				records = append(records, rec)
			}
			jsonEnc := json.NewEncoder(out)
			jsonEnc.SetIndent("", "  ")
			if err := jsonEnc.Encode(records); err != nil {
				return err
			}
			log.Printf("# Wrote %d records\n", len(records))
			return nil
		},
	}
}

func json2ipmCommand() *cli.Command {
	return &cli.Command{
		Name:  "json2ipm",
		Usage: "encode a JSON array of flat records into an IPM file",
		Flags: []cli.Flag{outEncodingFlag, outFilenameFlag, no1014Flag, configFileFlag},
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 1 {
				return cli.Exit("missing in_filename", 1)
			}
			cfg, err := config.Resolve(c.String(configFileFlag.Name))
			if err != nil {
				return err
			}
			enc, err := encoding.Lookup(c.String(outEncodingFlag.Name))
			if err != nil {
				return err
			}
			in, err := os.Open(c.Args().Get(0))
			if err != nil {
				return err
			}
			defer in.Close()

			var records []record.Record
			if err := json.NewDecoder(in).Decode(&records); err != nil {
				return err
			}

			out, closeOut, err := openOutput(c)
			if err != nil {
				return err
			}
			defer closeOut()

			writer := ipm.NewWriter(out, cfg, enc, ipm.WriterOptions{
				Blocked1014:   !c.Bool(no1014Flag.Name),
				EncodeOptions: iso8583.EncodeOptions{HexBin: true},
			})
			for i, rec := range records {
				if err := writer.Write(rec); err != nil {
					return fmt.Errorf("record %d: %w", i+1, err)
				}
			}
			if err := writer.Finalise(); err != nil {
				return err
			}
			log.Printf("# Wrote %d records\n", len(records))
			return nil
		},
	}
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "rewrite an IPM file from one character encoding to another",
		Flags: []cli.Flag{inEncodingFlag, outEncodingFlag, outFilenameFlag, no1014Flag, configFileFlag},
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 1 {
				return cli.Exit("missing in_filename", 1)
			}
			outFilename := c.String(outFilenameFlag.Name)
			if outFilename == "" {
				return cli.Exit("missing --out-filename", 1)
			}
			cfg, err := config.Resolve(c.String(configFileFlag.Name))
			if err != nil {
				return err
			}
			inEnc, err := encoding.Lookup(c.String(inEncodingFlag.Name))
			if err != nil {
				return err
			}
			outEnc, err := encoding.Lookup(c.String(outEncodingFlag.Name))
			if err != nil {
				return err
			}
			in, err := os.Open(c.Args().Get(0))
			if err != nil {
				return err
			}
			defer in.Close()
			out, err := os.Create(outFilename)
			if err != nil {
				return err
			}
			defer out.Close()

			count, err := ipm.Convert(in, out, cfg, inEnc, outEnc, ipm.ConvertOptions{Blocked1014: !c.Bool(no1014Flag.Name)})
			if err != nil {
				return fmt.Errorf("record %d: %w", count+1, err)
			}
			log.Printf("# Converted %d records\n", count)
			return nil
		},
	}
}

func paramToCSVCommand() *cli.Command {
	return &cli.Command{
		Name:      "paramtocsv",
		Usage:     "extract rows matching table_id from an IPM parameter file into CSV",
		ArgsUsage: "in_filename table_id",
		Flags:     []cli.Flag{inEncodingFlag, outFilenameFlag, no1014Flag, configFileFlag},
		Action: func(c *cli.Context) error {
			cfg, err := config.Resolve(c.String(configFileFlag.Name))
			if err != nil {
				return err
			}
			if c.Args().Len() < 2 {
				for _, id := range paramtable.ListTableIDs(cfg.MciParameterTables) {
					fmt.Printf("# %s\n", id)
				}
				return cli.Exit("missing in_filename or table_id", 1)
			}
			tableID := c.Args().Get(1)
			layout, ok := cfg.MciParameterTables[tableID]
			if !ok {
				return cli.Exit(fmt.Sprintf("unknown table_id %q", tableID), 1)
			}

			enc, err := encoding.Lookup(c.String(inEncodingFlag.Name))
			if err != nil {
				return err
			}
			in, err := os.Open(c.Args().Get(0))
			if err != nil {
				return err
			}
			defer in.Close()

			reader := ipm.NewReader(in, cfg, enc, ipm.ReaderOptions{
				Blocked1014:   !c.Bool(no1014Flag.Name),
				DecodeOptions: iso8583.DecodeOptions{HexBin: true},
			})
			defer reader.Close()

			rows, err := paramtable.Extract(reader, layout, tableID)
			if err != nil {
				return err
			}

			out, closeOut, err := openOutput(c)
			if err != nil {
				return err
			}
			defer closeOut()

			columns := layout.ColumnNames()
			w := csv.NewWriter(out)
			if err := w.Write(columns); err != nil {
				return err
			}
			for _, row := range rows {
				rec := make([]string, len(columns))
				for i, col := range columns {
					rec[i] = row[col].String()
				}
				if err := w.Write(rec); err != nil {
					return err
				}
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return err
			}
			log.Printf("# Wrote %d rows for table_id %s\n", len(rows), tableID)
			return nil
		},
	}
}
