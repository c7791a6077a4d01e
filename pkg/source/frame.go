package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/structview/pkg/cache"
)

// Group is the raw content of one named group.
type Group struct {
	Name    string   `json:"-"`
	Layout  string   `json:"layout"`
	Records []Record `json:"data"`
}

// Frame is one ordered snapshot of every group.
type Frame struct {
	Groups []Group
}

// Group returns the named group, or nil.
func (f *Frame) Group(name string) *Group {
	for i := range f.Groups {
		if f.Groups[i].Name == name {
			return &f.Groups[i]
		}
	}
	return nil
}

// Records returns the record count over all groups.
func (f *Frame) Records() int {
	n := 0
	for _, g := range f.Groups {
		n += len(g.Records)
	}
	return n
}

// Clone returns a copy of f whose records can be modified independently.
func (f Frame) Clone() Frame {
	out := Frame{Groups: make([]Group, len(f.Groups))}
	for i, g := range f.Groups {
		records := make([]Record, len(g.Records))
		for j, r := range g.Records {
			records[j] = r.Clone()
		}
		out.Groups[i] = Group{Name: g.Name, Layout: g.Layout, Records: records}
	}
	return out
}

// UnmarshalJSON decodes the group object while keeping key order.
func (f *Frame) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("frame must be a JSON object")
	}

	f.Groups = nil
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name := tok.(string)
		if seen[name] {
			return fmt.Errorf("duplicate group %q", name)
		}
		seen[name] = true

		g := Group{Name: name}
		if err := dec.Decode(&g); err != nil {
			return fmt.Errorf("group %q: %w", name, err)
		}
		f.Groups = append(f.Groups, g)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON encodes the frame with groups in frame order.
func (f Frame) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, g := range f.Groups {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(g.Name)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(g)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Hash returns a digest of the frame's canonical encoding. Two frames
// with equal hashes are structurally identical.
func (f Frame) Hash() string {
	data, err := f.MarshalJSON()
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// Decode reads one frame from r.
func Decode(r io.Reader) (Frame, error) {
	var f Frame
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}

// DecodeAll reads a sequence of frames from r. The input is either a JSON
// array of frames or a stream of concatenated frame objects.
func DecodeAll(r io.Reader) ([]Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var frames []Frame
		if err := json.Unmarshal(trimmed, &frames); err != nil {
			return nil, fmt.Errorf("decode frames: %w", err)
		}
		return frames, nil
	}

	var frames []Frame
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	for {
		var f Frame
		err := dec.Decode(&f)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode frame %d: %w", len(frames), err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}
