package project

import "strings"

// Type tags a file with its extension drawn from a closed table. The
// tag decides the content encoding: text types carry UTF-8 text, binary
// types carry base64 or data-URL payloads.
type Type string

const (
	TypeRust     Type = "rs"
	TypeToml     Type = "toml"
	TypeLock     Type = "lock"
	TypeJSON     Type = "json"
	TypeJS       Type = "js"
	TypeTS       Type = "ts"
	TypeHTML     Type = "html"
	TypeCSS      Type = "css"
	TypeMarkdown Type = "md"
	TypeText     Type = "txt"
	TypeWASM     Type = "wasm"
	TypePNG      Type = "png"
	TypeJPG      Type = "jpg"
	TypeGIF      Type = "gif"
	TypeSVG      Type = "svg"
	TypeWebP     Type = "webp"
	TypeGLB      Type = "glb"
	TypeGLTF     Type = "gltf"
	TypeMP3      Type = "mp3"
	TypeMP4      Type = "mp4"
	TypeUnknown  Type = ""
)

var binaryTypes = map[Type]bool{
	TypeWASM: true,
	TypePNG:  true,
	TypeJPG:  true,
	TypeGIF:  true,
	TypeWebP: true,
	TypeGLB:  true,
	TypeMP3:  true,
	TypeMP4:  true,
}

// Binary reports whether content of this type is a base64 or data-URL
// payload rather than UTF-8 text.
func (t Type) Binary() bool {
	return binaryTypes[t]
}

// TypeOf derives the type tag from a file name. Unrecognized extensions
// map to TypeUnknown and are treated as generic assets.
func TypeOf(name string) Type {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return TypeUnknown
	}
	ext := strings.ToLower(name[idx+1:])
	switch Type(ext) {
	case TypeRust, TypeToml, TypeLock, TypeJSON, TypeJS, TypeTS, TypeHTML,
		TypeCSS, TypeMarkdown, TypeText, TypeWASM, TypePNG, TypeJPG,
		TypeGIF, TypeSVG, TypeWebP, TypeGLB, TypeGLTF, TypeMP3, TypeMP4:
		return Type(ext)
	case "jpeg":
		return TypeJPG
	}
	return TypeUnknown
}
