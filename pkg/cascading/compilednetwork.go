// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cascading

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/gomlx/npucascade/pkg/commandstream"
)

// CompiledNetwork is the result of a compilation: the command stream and the buffers it uses.
type CompiledNetwork struct {
	// ID stamps the artifacts written for this compilation.
	ID uuid.UUID

	// OperationIDs of the front-end operations implemented, sorted.
	OperationIDs []int

	CommandStream *commandstream.CommandStream
	Buffers       *BufferManager

	ConstantDmaData         []byte
	ConstantControlUnitData []byte

	// IntermediateDataSize is the DRAM needed for all intermediate buffers.
	IntermediateDataSize uint32
}

// String implements fmt.Stringer.
func (n *CompiledNetwork) String() string {
	return fmt.Sprintf("CompiledNetwork(%s: %d operations, %d agents, %d buffers, %s intermediate data)",
		n.ID, len(n.OperationIDs), n.CommandStream.NumAgents(), len(n.Buffers.Buffers()),
		humanize.Bytes(uint64(n.IntermediateDataSize)))
}

// WriteBinary writes the binary command stream.
func (n *CompiledNetwork) WriteBinary(w io.Writer) error {
	data, err := n.CommandStream.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteXML writes the XML form of the command stream.
func (n *CompiledNetwork) WriteXML(w io.Writer) error {
	return n.CommandStream.WriteXML(w)
}
