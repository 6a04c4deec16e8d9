// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandstream

import (
	"bufio"
	"encoding/binary"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// BufferType is the role of a DRAM buffer in the binding table.
type BufferType uint32

//go:generate go tool enumer -type=BufferType -trimprefix=BufferType -transform=snake-upper -text -output=gen_buffertype_enumer.go cmm.go

const (
	BufferTypeInput BufferType = iota
	BufferTypeIntermediate
	BufferTypeOutput
	BufferTypeConstant
	BufferTypeCmdFw
)

// Hex64 is an address, written in hexadecimal in XML.
type Hex64 uint64

// MarshalText implements encoding.TextMarshaler.
func (h Hex64) MarshalText() ([]byte, error) {
	return []byte("0x" + strconv.FormatUint(uint64(h), 16)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hex64) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(string(text), 0, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid address %q", text)
	}
	*h = Hex64(v)
	return nil
}

// BufferInfo is one entry of the binding table.
type BufferInfo struct {
	ID      uint32     `xml:"ID"`
	Address Hex64      `xml:"ADDRESS"`
	Size    uint32     `xml:"SIZE"`
	Type    BufferType `xml:"TYPE"`
}

// BindingTable lists where the buffers of an inference live in memory.
type BindingTable struct {
	XMLName xml.Name     `xml:"BIND"`
	Buffers []BufferInfo `xml:"BUFFER"`
}

// WriteXML writes the binding table as XML.
func (bt *BindingTable) WriteXML(w io.Writer) error {
	return writeXMLDocument(w, bt, "  ")
}

// InferenceAddress is where the inference descriptor is placed in memory dumps. Its first word is the
// address of the buffer array: the number of buffers, followed by one 16 bytes entry per buffer holding
// the 64 bits address, the size and the BufferType.
const InferenceAddress = 0x60000000

const (
	bufferEntrySize = 16

	// maxBindingTableBuffers bounds the buffer count read from a dump.
	maxBindingTableBuffers = 1 << 16
)

// MemoryImage is the sparse memory contents read from a CMM dump, by word address.
//
// CMM dumps have one line per row of words: "ADDR: W0 W1 W2 W3", all in hexadecimal, words being
// little-endian.
type MemoryImage map[uint64]uint32

// ParseCMM reads a CMM dump.
func ParseCMM(r io.Reader) (MemoryImage, error) {
	mem := make(MemoryImage)
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		addrText, wordsText, found := strings.Cut(line, ":")
		if !found {
			return nil, errors.Errorf("CMM line %d: missing address separator in %q", lineNum, line)
		}
		addr, err := strconv.ParseUint(strings.TrimSpace(addrText), 16, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "CMM line %d: invalid address", lineNum)
		}
		if addr%4 != 0 {
			return nil, errors.Errorf("CMM line %d: address 0x%x is not word aligned", lineNum, addr)
		}
		for ii, wordText := range strings.Fields(wordsText) {
			word, err := strconv.ParseUint(wordText, 16, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "CMM line %d: invalid word #%d", lineNum, ii)
			}
			mem[addr+4*uint64(ii)] = uint32(word)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading CMM")
	}
	return mem, nil
}

// Bytes returns n bytes starting at addr, which needs not be word aligned.
func (mem MemoryImage) Bytes(addr uint64, n int) ([]byte, error) {
	data := make([]byte, n)
	for ii := range data {
		byteAddr := addr + uint64(ii)
		word, found := mem[byteAddr&^3]
		if !found {
			return nil, errors.Errorf("address 0x%x is not in the memory dump", byteAddr&^3)
		}
		data[ii] = byte(word >> (8 * (byteAddr & 3)))
	}
	return data, nil
}

// Uint32 returns the little-endian word at addr.
func (mem MemoryImage) Uint32(addr uint64) (uint32, error) {
	data, err := mem.Bytes(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// BindingTable reads the binding table of the inference at InferenceAddress.
func (mem MemoryImage) BindingTable() (*BindingTable, error) {
	arrayAddr, err := mem.Uint32(InferenceAddress)
	if err != nil {
		return nil, errors.WithMessage(err, "reading inference descriptor")
	}
	numBuffers, err := mem.Uint32(uint64(arrayAddr))
	if err != nil {
		return nil, errors.WithMessage(err, "reading number of buffers")
	}
	if numBuffers > maxBindingTableBuffers {
		return nil, errors.Errorf("binding table has too many buffers (%d)", numBuffers)
	}
	bt := &BindingTable{Buffers: make([]BufferInfo, 0, numBuffers)}
	for id := range numBuffers {
		entry, err := mem.Bytes(uint64(arrayAddr)+4+uint64(id)*bufferEntrySize, bufferEntrySize)
		if err != nil {
			return nil, errors.WithMessagef(err, "reading buffer #%d", id)
		}
		bt.Buffers = append(bt.Buffers, BufferInfo{
			ID:      id,
			Address: Hex64(binary.LittleEndian.Uint64(entry[0:8])),
			Size:    binary.LittleEndian.Uint32(entry[8:12]),
			Type:    BufferType(binary.LittleEndian.Uint32(entry[12:16])),
		})
	}
	return bt, nil
}

// CommandStream decodes the command stream of the inference at InferenceAddress: the contents of its
// CMD_FW buffer or, if there is none, of buffer 0.
func (mem MemoryImage) CommandStream() (*CommandStream, error) {
	bt, err := mem.BindingTable()
	if err != nil {
		return nil, err
	}
	if len(bt.Buffers) == 0 {
		return nil, errors.New("binding table has no buffers")
	}
	buf := bt.Buffers[0]
	for _, b := range bt.Buffers {
		if b.Type == BufferTypeCmdFw {
			buf = b
			break
		}
	}
	if klog.V(1).Enabled() {
		klog.Infof("reading command stream from buffer #%d at 0x%x (%d bytes)", buf.ID, buf.Address, buf.Size)
	}
	data, err := mem.Bytes(uint64(buf.Address), int(buf.Size))
	if err != nil {
		return nil, errors.WithMessagef(err, "reading command stream buffer #%d", buf.ID)
	}
	return DecodeBinary(data)
}

// ExtractBTFromCMM reads a CMM dump and writes the XML form of its binding table.
func ExtractBTFromCMM(r io.Reader, w io.Writer) error {
	mem, err := ParseCMM(r)
	if err != nil {
		return err
	}
	bt, err := mem.BindingTable()
	if err != nil {
		return err
	}
	return bt.WriteXML(w)
}

// ExtractCSFromCMM reads a CMM dump and writes the XML form of its command stream.
func ExtractCSFromCMM(r io.Reader, w io.Writer) error {
	mem, err := ParseCMM(r)
	if err != nil {
		return err
	}
	cs, err := mem.CommandStream()
	if err != nil {
		return err
	}
	return cs.WriteXML(w)
}
