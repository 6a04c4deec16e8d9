// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandstream

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Binary layout, all little-endian:
//
//	header:  "ENCS", major, minor, patch (uint32 each)
//	command: opcode (uint32) followed by the opcode specific record
//
// A Cascade record starts with cascadeHeader, followed by the fixed size agent records and then the fixed size
// command records of the DmaRd, DmaWr, Mce and Ple lists. Offsets in cascadeHeader are relative to its start.

var byteOrder = binary.LittleEndian

var streamMagic = [4]byte{'E', 'N', 'C', 'S'}

type streamHeader struct {
	Magic                                    [4]byte
	VersionMajor, VersionMinor, VersionPatch uint32
}

type dumpDramRecord struct {
	DramBufferID uint32
	Filename     [MaxFilenameLength + 1]byte
}

type dumpSramRecord struct {
	Prefix [MaxFilenameLength + 1]byte
}

type commandListHeader struct {
	Offset, NumCommands uint32
}

// numCommandLists is the number of command queues of a cascade: DmaRd, DmaWr, Mce and Ple.
const numCommandLists = 4

type cascadeHeader struct {
	TotalSize    uint32
	AgentsOffset uint32
	NumAgents    uint32
	Lists        [numCommandLists]commandListHeader
}

func roundUp4(n int) int { return (n + 3) &^ 3 }

var (
	cascadeHeaderSize = binary.Size(cascadeHeader{})

	// agentDataSize is the size of the largest AgentData.
	agentDataSize = roundUp4(max(binary.Size(IfmS{}), binary.Size(WgtS{}), binary.Size(MceS{}),
		binary.Size(PleL{}), binary.Size(PleS{}), binary.Size(OfmS{})))
	agentInfoSize   = roundUp4(binary.Size(AgentDependencyInfo{}))
	agentRecordSize = 4 + agentDataSize + agentInfoSize

	// commandPayloadSize is the size of the largest Command.
	commandPayloadSize = roundUp4(max(binary.Size(WaitForCounterCommand{}), binary.Size(DmaTransfer{}),
		binary.Size(ProgramMceStripeCommand{}), binary.Size(ConfigMceifCommand{}),
		binary.Size(StartMceStripeCommand{}), binary.Size(LoadPleCodeIntoPleSramCommand{}),
		binary.Size(StartPleStripeCommand{})))
	commandRecordSize = 4 + commandPayloadSize
)

func (c *Cascade) commandLists() [numCommandLists][]Command {
	return [numCommandLists][]Command{c.DmaRdCommands, c.DmaWrCommands, c.MceCommands, c.PleCommands}
}

// binaryWriter accumulates the encoding, keeping the first error.
type binaryWriter struct {
	buf bytes.Buffer
	err error
}

func (w *binaryWriter) put(v any) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(&w.buf, byteOrder, v)
}

// putPadded writes v followed by zeros up to size bytes.
func (w *binaryWriter) putPadded(v any, size int) {
	if w.err != nil {
		return
	}
	n := binary.Size(v)
	if n < 0 || n > size {
		w.err = errors.Errorf("cannot encode %T in a %d bytes record", v, size)
		return
	}
	w.put(v)
	w.buf.Write(make([]byte, size-n))
}

func (w *binaryWriter) setError(err error) {
	if w.err == nil {
		w.err = err
	}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (cs *CommandStream) MarshalBinary() ([]byte, error) {
	w := &binaryWriter{}
	w.put(streamHeader{Magic: streamMagic, VersionMajor: cs.VersionMajor, VersionMinor: cs.VersionMinor,
		VersionPatch: cs.VersionPatch})
	for ii, cmd := range cs.Commands {
		if cmd == nil {
			return nil, errors.Errorf("command #%d is nil", ii)
		}
		w.put(uint32(cmd.Opcode()))
		switch c := cmd.(type) {
		case *Fence:
		case *DumpDram:
			record := dumpDramRecord{DramBufferID: c.DramBufferID}
			w.setError(copyFilename(record.Filename[:], c.Filename))
			w.put(&record)
		case *DumpSram:
			var record dumpSramRecord
			w.setError(copyFilename(record.Prefix[:], c.Prefix))
			w.put(&record)
		case *Cascade:
			w.cascade(c)
		default:
			return nil, errors.Errorf("command #%d: unsupported type %T", ii, cmd)
		}
		if w.err != nil {
			return nil, errors.WithMessagef(w.err, "encoding command #%d (%s)", ii, cmd.Opcode())
		}
	}
	return w.buf.Bytes(), nil
}

func copyFilename(dst []byte, name string) error {
	if len(name) > MaxFilenameLength {
		return errors.Errorf("file name %q longer than %d characters", name, MaxFilenameLength)
	}
	copy(dst, name)
	return nil
}

func (w *binaryWriter) cascade(c *Cascade) {
	h := cascadeHeader{
		AgentsOffset: uint32(cascadeHeaderSize),
		NumAgents:    uint32(len(c.Agents)),
	}
	offset := cascadeHeaderSize + len(c.Agents)*agentRecordSize
	lists := c.commandLists()
	for ii, list := range lists {
		h.Lists[ii] = commandListHeader{Offset: uint32(offset), NumCommands: uint32(len(list))}
		offset += len(list) * commandRecordSize
	}
	h.TotalSize = uint32(offset)
	w.put(&h)

	for ii := range c.Agents {
		agent := &c.Agents[ii]
		if agent.Data == nil {
			w.setError(errors.Errorf("agent #%d has no data", ii))
			return
		}
		w.put(uint32(agent.Data.AgentType()))
		w.putPadded(agent.Data, agentDataSize)
		w.putPadded(&agent.Info, agentInfoSize)
	}
	for _, list := range lists {
		for ii, cmd := range list {
			if cmd == nil {
				w.setError(errors.Errorf("command #%d of a cascade is nil", ii))
				return
			}
			w.put(uint32(cmd.CommandType()))
			w.putPadded(commandPayload(cmd), commandPayloadSize)
		}
	}
}

// commandPayload returns the part of the command encoded after its type.
func commandPayload(cmd Command) any {
	if dma, ok := cmd.(*DmaCommand); ok {
		return &dma.DmaTransfer
	}
	return cmd
}

// binaryReader decodes from a buffer, keeping the first error.
type binaryReader struct {
	r   *bytes.Reader
	err error
}

func (r *binaryReader) get(v any) {
	if r.err != nil {
		return
	}
	if err := binary.Read(r.r, byteOrder, v); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		r.err = errors.Wrapf(err, "reading %T at offset %d", v, r.pos())
	}
}

// getPadded reads a record of size bytes and decodes v from its start.
func (r *binaryReader) getPadded(v any, size int) {
	if r.err != nil {
		return
	}
	record := make([]byte, size)
	if _, err := io.ReadFull(r.r, record); err != nil {
		r.err = errors.Wrapf(io.ErrUnexpectedEOF, "reading %d bytes record at offset %d", size, r.pos())
		return
	}
	if err := binary.Read(bytes.NewReader(record), byteOrder, v); err != nil {
		r.err = errors.Wrapf(err, "decoding %T", v)
	}
}

func (r *binaryReader) pos() int { return int(r.r.Size()) - r.r.Len() }

// DecodeBinary parses the binary form of a command stream.
func DecodeBinary(data []byte) (*CommandStream, error) {
	cs := &CommandStream{}
	if err := cs.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return cs, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (cs *CommandStream) UnmarshalBinary(data []byte) error {
	r := &binaryReader{r: bytes.NewReader(data)}
	var header streamHeader
	r.get(&header)
	if r.err != nil {
		return errors.WithMessage(r.err, "command stream header")
	}
	if header.Magic != streamMagic {
		return errors.Errorf("not a command stream: invalid magic %q", header.Magic[:])
	}
	if header.VersionMajor != VersionMajor {
		return errors.Errorf("unsupported command stream version %d.%d.%d, expected major version %d",
			header.VersionMajor, header.VersionMinor, header.VersionPatch, VersionMajor)
	}
	*cs = CommandStream{VersionMajor: header.VersionMajor, VersionMinor: header.VersionMinor,
		VersionPatch: header.VersionPatch}

	for r.r.Len() > 0 {
		var opcode Opcode
		r.get(&opcode)
		var cmd StreamCommand
		switch opcode {
		case OpcodeFence:
			cmd = &Fence{}
		case OpcodeDumpDram:
			var record dumpDramRecord
			r.get(&record)
			cmd = &DumpDram{DramBufferID: record.DramBufferID, Filename: cString(record.Filename[:])}
		case OpcodeDumpSram:
			var record dumpSramRecord
			r.get(&record)
			cmd = &DumpSram{Prefix: cString(record.Prefix[:])}
		case OpcodeCascade:
			cmd = r.cascade()
		default:
			if r.err == nil {
				r.err = errors.Errorf("unknown opcode %d at offset %d", opcode, r.pos()-4)
			}
		}
		if r.err != nil {
			return errors.WithMessagef(r.err, "decoding command #%d", len(cs.Commands))
		}
		cs.Commands = append(cs.Commands, cmd)
	}
	return nil
}

func cString(b []byte) string {
	if n := bytes.IndexByte(b, 0); n >= 0 {
		b = b[:n]
	}
	return string(b)
}

func (r *binaryReader) cascade() *Cascade {
	start := r.pos()
	var h cascadeHeader
	r.get(&h)
	if r.err != nil {
		return nil
	}
	c := &Cascade{}
	if int(h.AgentsOffset) != cascadeHeaderSize {
		r.err = errors.Errorf("cascade agents at offset %d, expected %d", h.AgentsOffset, cascadeHeaderSize)
		return nil
	}
	if rest := r.r.Len(); int(h.TotalSize) > rest+cascadeHeaderSize {
		r.err = errors.Wrapf(io.ErrUnexpectedEOF, "cascade of %d bytes, only %d available", h.TotalSize,
			rest+cascadeHeaderSize)
		return nil
	}
	if uint64(h.NumAgents)*uint64(agentRecordSize) > uint64(h.TotalSize) {
		r.err = errors.Errorf("cascade of %d bytes cannot hold %d agents", h.TotalSize, h.NumAgents)
		return nil
	}
	if h.NumAgents > 0 {
		c.Agents = make([]Agent, h.NumAgents)
	}
	for ii := range c.Agents {
		var agentType AgentType
		r.get(&agentType)
		data, err := newAgentData(agentType)
		if err != nil {
			r.err = errors.WithMessagef(err, "agent #%d", ii)
			return nil
		}
		r.getPadded(data, agentDataSize)
		r.getPadded(&c.Agents[ii].Info, agentInfoSize)
		c.Agents[ii].Data = data
	}

	var lists [numCommandLists][]Command
	for ii, lh := range h.Lists {
		if r.err != nil {
			return nil
		}
		if got := r.pos() - start; got != int(lh.Offset) {
			r.err = errors.Errorf("cascade command list #%d at offset %d, expected %d", ii, lh.Offset, got)
			return nil
		}
		lists[ii] = make([]Command, 0, min(int(lh.NumCommands), r.r.Len()/commandRecordSize))
		for range lh.NumCommands {
			var cmdType CommandType
			r.get(&cmdType)
			cmd, err := newCommand(cmdType)
			if err != nil {
				if r.err == nil {
					r.err = err
				}
				return nil
			}
			r.getPadded(commandPayload(cmd), commandPayloadSize)
			lists[ii] = append(lists[ii], cmd)
		}
	}
	if r.err == nil && r.pos()-start != int(h.TotalSize) {
		r.err = errors.Errorf("cascade has %d bytes, header says %d", r.pos()-start, h.TotalSize)
	}
	c.DmaRdCommands, c.DmaWrCommands, c.MceCommands, c.PleCommands = nilIfEmpty(lists[0]), nilIfEmpty(lists[1]),
		nilIfEmpty(lists[2]), nilIfEmpty(lists[3])
	return c
}

func nilIfEmpty(list []Command) []Command {
	if len(list) == 0 {
		return nil
	}
	return list
}

// newAgentData returns an empty AgentData of the given type.
func newAgentData(t AgentType) (AgentData, error) {
	switch t {
	case AgentTypeIfmStreamer:
		return &IfmS{}, nil
	case AgentTypeWgtStreamer:
		return &WgtS{}, nil
	case AgentTypeMceScheduler:
		return &MceS{}, nil
	case AgentTypePleLoader:
		return &PleL{}, nil
	case AgentTypePleScheduler:
		return &PleS{}, nil
	case AgentTypeOfmStreamer:
		return &OfmS{}, nil
	}
	return nil, errors.Errorf("unknown agent type %d", uint32(t))
}
