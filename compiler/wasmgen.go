package compiler

import "bytes"

// Minimal core-wasm emission for the simulated toolchain. Section ids
// and encodings follow the WebAssembly binary format; values stay small
// enough that most LEB128 encodings are single bytes, but lengths are
// encoded properly so decoders accept the output.

const (
	secCustom   byte = 0
	secType     byte = 1
	secFunction byte = 3
	secMemory   byte = 5
	secExport   byte = 7
	secCode     byte = 10
)

const (
	extKindFunc   byte = 0
	extKindMemory byte = 2
)

var wasmHeader = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func writeULEB(buf *bytes.Buffer, v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf.WriteByte(b)
		if v == 0 {
			return
		}
	}
}

func writeName(buf *bytes.Buffer, name string) {
	writeULEB(buf, uint32(len(name)))
	buf.WriteString(name)
}

func writeSection(out *bytes.Buffer, id byte, body []byte) {
	out.WriteByte(id)
	writeULEB(out, uint32(len(body)))
	out.Write(body)
}

// emitModule builds a valid module exporting a one-page linear memory
// and a no-op "main" function, with a custom section carrying the entry
// path so the binary is a pure function of its inputs.
func emitModule(entryPath string) []byte {
	var out bytes.Buffer
	out.Write(wasmHeader)

	var body bytes.Buffer

	// type section: one () -> () signature
	writeULEB(&body, 1)
	body.WriteByte(0x60)
	writeULEB(&body, 0)
	writeULEB(&body, 0)
	writeSection(&out, secType, body.Bytes())
	body.Reset()

	// function section: one function of type 0
	writeULEB(&body, 1)
	writeULEB(&body, 0)
	writeSection(&out, secFunction, body.Bytes())
	body.Reset()

	// memory section: one memory, min 1 page, no max
	writeULEB(&body, 1)
	body.WriteByte(0x00)
	writeULEB(&body, 1)
	writeSection(&out, secMemory, body.Bytes())
	body.Reset()

	// export section: memory and main
	writeULEB(&body, 2)
	writeName(&body, "memory")
	body.WriteByte(extKindMemory)
	writeULEB(&body, 0)
	writeName(&body, "main")
	body.WriteByte(extKindFunc)
	writeULEB(&body, 0)
	writeSection(&out, secExport, body.Bytes())
	body.Reset()

	// code section: one empty body
	writeULEB(&body, 1)
	var fn bytes.Buffer
	writeULEB(&fn, 0) // no locals
	fn.WriteByte(0x0b)
	writeULEB(&body, uint32(fn.Len()))
	body.Write(fn.Bytes())
	writeSection(&out, secCode, body.Bytes())
	body.Reset()

	// custom section naming the compiled entry point
	writeName(&body, "ownable.entry")
	body.WriteString(entryPath)
	writeSection(&out, secCustom, body.Bytes())

	return out.Bytes()
}
