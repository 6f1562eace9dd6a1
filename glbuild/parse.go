package glbuild

import (
	"bytes"
	"errors"
	"fmt"
)

// ParseDecls parses GLSL source consisting solely of struct and function
// definitions written in the layout [AppendStructDecl] and [AppendFuncDecl]
// produce: declaration header on one line, one statement per line and the
// closing brace alone on its own line.
func ParseDecls(src []byte) (structs []Struct, funcs []Func, err error) {
	lines := bytes.Split(bytes.TrimSpace(src), []byte("\n"))
	for i := 0; i < len(lines); i++ {
		header := bytes.TrimSpace(lines[i])
		if len(header) == 0 {
			continue
		}
		end := i + 1
		for end < len(lines) && !isClosing(lines[end]) {
			end++
		}
		if end == len(lines) {
			return nil, nil, fmt.Errorf("line %d: unterminated declaration %q", i+1, header)
		}
		body := lines[i+1 : end]
		if bytes.HasPrefix(header, []byte("struct ")) {
			s, err := parseStruct(header, body)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			structs = append(structs, s)
		} else {
			f, err := parseFunc(header, body)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			funcs = append(funcs, f)
		}
		i = end
	}
	return structs, funcs, nil
}

func isClosing(line []byte) bool {
	line = bytes.TrimSpace(line)
	return bytes.Equal(line, []byte("}")) || bytes.Equal(line, []byte("};"))
}

func parseStruct(header []byte, body [][]byte) (Struct, error) {
	name := bytes.TrimSpace(bytes.TrimSuffix(bytes.TrimPrefix(header, []byte("struct ")), []byte("{")))
	if len(name) == 0 {
		return Struct{}, errors.New("empty struct name")
	}
	s := Struct{Name: string(name)}
	for _, line := range body {
		field := bytes.Fields(bytes.TrimSuffix(bytes.TrimSpace(line), []byte(";")))
		if len(field) != 2 {
			return Struct{}, fmt.Errorf("struct %s: bad field %q", name, line)
		}
		s.Fields = append(s.Fields, Param{Type: string(field[0]), Name: string(field[1])})
	}
	return s, nil
}

func parseFunc(header []byte, body [][]byte) (Func, error) {
	fnNameEnd := bytes.IndexByte(header, '(')
	fnNameStart := bytes.IndexByte(header, ' ')
	paramEnd := bytes.LastIndexByte(header, ')')
	if fnNameEnd < 0 || fnNameStart < 0 || fnNameStart > fnNameEnd || paramEnd < fnNameEnd {
		return Func{}, fmt.Errorf("unable to parse function header %q", header)
	}
	f := Func{
		Result: string(header[:fnNameStart]),
		Name:   string(bytes.TrimSpace(header[fnNameStart:fnNameEnd])),
	}
	if len(f.Name) == 0 {
		return Func{}, errors.New("empty function name")
	}
	params := bytes.TrimSpace(header[fnNameEnd+1 : paramEnd])
	if len(params) > 0 {
		for _, param := range bytes.Split(params, []byte(",")) {
			field := bytes.Fields(param)
			if len(field) != 2 {
				return Func{}, fmt.Errorf("function %s: bad parameter %q", f.Name, param)
			}
			f.Params = append(f.Params, Param{Type: string(field[0]), Name: string(field[1])})
		}
	}
	for _, line := range body {
		f.Body = append(f.Body, string(bytes.TrimSpace(line)))
	}
	return f, nil
}
