// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// cmdstream converts command streams between their binary and XML forms, and extracts the binding
// table or the command stream from a CMM memory dump.
//
// Usage:
//
//	cmdstream -convert=<conversion> <input> <output>
//
// Input or output "-" stand for stdin and stdout.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"k8s.io/klog/v2"

	"github.com/gomlx/npucascade/pkg/commandstream"
)

// conversions maps each conversion name to its implementation.
var conversions = map[string]func(r io.Reader, w io.Writer) error{
	"bin2xml": binaryToXML,
	"xml2bin": xmlToBinary,
	"cmm2bt":  commandstream.ExtractBTFromCMM,
	"cmm2cs":  commandstream.ExtractCSFromCMM,
}

func conversionNames() []string {
	names := maps.Keys(conversions)
	slices.Sort(names)
	return names
}

var flagConvert = flag.String("convert", "bin2xml",
	fmt.Sprintf("Conversion to apply, one of: %s.", strings.Join(conversionNames(), ", ")))

func main() {
	klog.InitFlags(nil)
	flag.Usage = func() {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s -convert=<conversion> <input> <output>\n",
			filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		klog.Errorf("Expected an input and an output, got %d arguments. See 'cmdstream -help'.", flag.NArg())
		os.Exit(1)
	}
	if err := convert(*flagConvert, flag.Arg(0), flag.Arg(1)); err != nil {
		klog.Errorf("Failed: %+v", err)
		os.Exit(1)
	}
}

// convert inputPath into outputPath.
func convert(name, inputPath, outputPath string) error {
	fn, found := conversions[name]
	if !found {
		return errors.Errorf("unknown conversion %q, valid values are: %s", name,
			strings.Join(conversionNames(), ", "))
	}

	r := io.Reader(os.Stdin)
	if inputPath != "-" {
		f, err := os.Open(inputPath)
		if err != nil {
			return errors.Wrapf(err, "opening input")
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	if outputPath == "-" {
		return fn(r, os.Stdout)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return errors.Wrapf(err, "creating output")
	}
	if err = fn(r, f); err != nil {
		_ = f.Close()
		return errors.WithMessagef(err, "%s of %q", name, inputPath)
	}
	return errors.Wrapf(f.Close(), "closing %q", outputPath)
}

func binaryToXML(r io.Reader, w io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "reading binary command stream")
	}
	cs, err := commandstream.DecodeBinary(data)
	if err != nil {
		return err
	}
	return cs.WriteXML(w)
}

func xmlToBinary(r io.Reader, w io.Writer) error {
	cs, err := commandstream.ParseXML(r)
	if err != nil {
		return err
	}
	data, err := cs.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return errors.Wrap(err, "writing binary command stream")
}
