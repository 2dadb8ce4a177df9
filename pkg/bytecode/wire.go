package bytecode

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ImageMagic identifies a serialized chunk: "LOXC" (Lox Chunk).
var ImageMagic = []byte{'L', 'O', 'X', 'C'}

// cborEncMode uses canonical mode so that equal chunks encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type wireImage struct {
	Magic     []byte         `cbor:"1,keyasint"`
	Version   uint16         `cbor:"2,keyasint"`
	Code      []wireInstr    `cbor:"3,keyasint"`
	Lines     []int          `cbor:"4,keyasint"`
	Constants []wireConstant `cbor:"5,keyasint"`
}

type wireInstr struct {
	_       struct{} `cbor:",toarray"`
	Op      uint8
	Operand int
}

type wireConstant struct {
	_    struct{} `cbor:",toarray"`
	Type uint8
	Bool bool
	Num  float64
}

// MarshalChunk serializes a chunk to CBOR bytes.
func MarshalChunk(c *Chunk) ([]byte, error) {
	img := wireImage{
		Magic:     ImageMagic,
		Version:   c.Version,
		Code:      make([]wireInstr, len(c.Code)),
		Lines:     c.Lines,
		Constants: make([]wireConstant, len(c.Constants)),
	}
	for i, in := range c.Code {
		img.Code[i] = wireInstr{Op: uint8(in.Op), Operand: in.Operand}
	}
	for i, v := range c.Constants {
		img.Constants[i] = wireConstant{Type: uint8(v.typ), Bool: v.b, Num: v.n}
	}
	data, err := cborEncMode.Marshal(img)
	if err != nil {
		return nil, fmt.Errorf("bytecode: marshal chunk: %w", err)
	}
	return data, nil
}

// UnmarshalChunk deserializes a chunk from CBOR bytes. The decoded chunk is
// validated, so it never contains an out-of-range constant index.
func UnmarshalChunk(data []byte) (*Chunk, error) {
	var img wireImage
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal chunk: %w", err)
	}
	if !bytes.Equal(img.Magic, ImageMagic) {
		return nil, fmt.Errorf("bytecode: bad image magic %q", img.Magic)
	}
	if img.Version != BytecodeVersion {
		return nil, fmt.Errorf("bytecode: unsupported image version %d (want %d)", img.Version, BytecodeVersion)
	}

	c := &Chunk{
		Version:   img.Version,
		Code:      make([]Instruction, len(img.Code)),
		Lines:     img.Lines,
		Constants: make([]Value, len(img.Constants)),
	}
	if c.Lines == nil {
		c.Lines = []int{}
	}
	for i, in := range img.Code {
		c.Code[i] = Instruction{Op: Opcode(in.Op), Operand: in.Operand}
	}
	for i, wc := range img.Constants {
		switch ValueType(wc.Type) {
		case ValNil:
			c.Constants[i] = Nil
		case ValBool:
			c.Constants[i] = Bool(wc.Bool)
		case ValNumber:
			c.Constants[i] = Number(wc.Num)
		default:
			return nil, fmt.Errorf("bytecode: constant %d has unknown type %d", i, wc.Type)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("bytecode: invalid image: %w", err)
	}
	return c, nil
}
