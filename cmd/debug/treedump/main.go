// treedump loads single HTML file and writes intermediate trees produced on
// the way to the model: view tree as loaded, converted model tree, model
// XML and view text positions mapped to the model. It uses the same
// configuration as vmconv.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"vmconv/cmd/debug/internal/dumputil"
	"vmconv/config"
	"vmconv/convert"
	"vmconv/modelxml"
	"vmconv/utils/debug"
)

func main() {
	all := flag.Bool("all", false, "enable all dump flags (-view, -model, -xml, -positions)")
	viewDump := flag.Bool("view", false, "dump view tree into <file>-view.txt")
	modelDump := flag.Bool("model", false, "dump model tree into <file>-model.txt")
	xmlDump := flag.Bool("xml", false, "write indented model XML into <file>-model.xml")
	posDump := flag.Bool("positions", false, "map view text positions to model into <file>-positions.txt")
	cfgPath := flag.String("config", "", "load conversion configuration from `FILE` (YAML)")
	verbose := flag.Bool("verbose", false, "log conversion details to stderr")
	overwrite := flag.Bool("overwrite", false, "overwrite existing output")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: treedump [-all] [-view] [-model] [-xml] [-positions] [-config FILE] [-verbose] [-overwrite] <file.html> [outdir]\n\n")
		fmt.Fprintf(os.Stderr, "Writes trees produced while converting HTML file.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		os.Exit(2)
	}

	if *all {
		*viewDump = true
		*modelDump = true
		*xmlDump = true
		*posDump = true
	}
	if !*viewDump && !*modelDump && !*xmlDump && !*posDump {
		flag.Usage()
		os.Exit(2)
	}

	defer func(startedAt time.Time) {
		fmt.Fprintf(os.Stderr, "\nExecution time: %s\n", time.Since(startedAt))
	}(time.Now())

	inPath, outDir := flag.Arg(0), flag.Arg(1)

	log := zap.NewNop()
	if *verbose {
		var err error
		if log, err = zap.NewDevelopment(); err != nil {
			fail("logger", err)
		}
		defer func() { _ = log.Sync() }()
	}

	cfg, err := config.LoadConfiguration(*cfgPath)
	if err != nil {
		fail("config", err)
	}
	p, err := convert.NewPipeline(&cfg.Conversion, log)
	if err != nil {
		fail("pipeline", err)
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		fail("read "+inPath, err)
	}
	root, err := p.Load(bytes.NewReader(data), "")
	if err != nil {
		fail("load", err)
	}
	if *viewDump {
		write(inPath, outDir, "-view.txt", []byte(debug.DumpView(root)), *overwrite)
	}

	if !*modelDump && !*xmlDump && !*posDump {
		return
	}
	frag, err := p.ConvertView(root)
	if err != nil {
		fail("convert", err)
	}
	if *modelDump {
		write(inPath, outDir, "-model.txt", []byte(debug.DumpModel(frag)), *overwrite)
	}
	if *xmlDump {
		var buf bytes.Buffer
		if err := modelxml.Write(&buf, frag, modelxml.WithSource(inPath), modelxml.WithIndent(2)); err != nil {
			fail("xml", err)
		}
		write(inPath, outDir, "-model.xml", buf.Bytes(), *overwrite)
	}
	if *posDump {
		write(inPath, outDir, "-positions.txt", dumpPositions(p.MapTextPositions(root)), *overwrite)
	}
}

func dumpPositions(positions []convert.TextPosition) []byte {
	var buf bytes.Buffer
	for _, tp := range positions {
		if tp.Err != nil {
			fmt.Fprintf(&buf, "%q\t! %v\n", tp.Text.Data(), tp.Err)
			continue
		}
		fmt.Fprintf(&buf, "%q\t%v\t%v\n", tp.Text.Data(), tp.Model, tp.Back)
	}
	return buf.Bytes()
}

func write(inPath, outDir, suffix string, data []byte, overwrite bool) {
	out, err := dumputil.WriteOutput(inPath, outDir, suffix, data, overwrite)
	if err != nil {
		fail("write", err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", out)
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}
