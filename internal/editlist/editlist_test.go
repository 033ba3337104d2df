package editlist

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/vlogtools/vlog/internal/timeline"
)

func TestRead(t *testing.T) {
	input := strings.Join([]string{
		Header,
		"00.mp4\t1.0\t0.5\t2.0\thello there",
		"",
		"#00.mp4\t1.0\t3.0\t4.0\tdisabled",
		"01.mp4\t1.2\t1.0\t5.0\tnext",
	}, "\n") + "\n"

	got, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	want := []timeline.Line{
		{Number: 2, Text: "00.mp4\t1.0\t0.5\t2.0\thello there"},
		{Number: 3, Text: ""},
		{Number: 5, Text: "01.mp4\t1.2\t1.0\t5.0\tnext"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Read() = %#v, want %#v", got, want)
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), FileName)); err == nil {
		t.Error("ReadFile() error = nil, want error")
	}
}

func TestEntryString(t *testing.T) {
	e := Entry{Source: "000001_000000_90.mp4", Speed: 1, Start: 0.5, End: 2.25, Text: "  hello\n world "}
	want := "000001_000000_90.mp4\t1.0\t0.500\t2.250\thello world"
	if got := e.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	first := []Entry{{Source: "000001_000000_90.mp4", Speed: 1, Start: 0, End: 1, Text: "one"}}
	if err := Append(path, first); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	second := []Entry{{Source: "000002_000000_90.mp4", Speed: 1, Start: 1, End: 2, Text: "two"}}
	if err := Append(path, second); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Header + "\n" + first[0].String() + "\n" + second[0].String() + "\n"
	if string(data) != want {
		t.Errorf("file = %q, want %q", data, want)
	}
}

func TestClipNumber(t *testing.T) {
	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{"000012_000003_90.mp4", 12, false},
		{"/project/000001.mp4", 1, false},
		{"07_a.mp4", 7, false},
		{"intro.mp4", 0, true},
	}

	for _, tt := range tests {
		got, err := ClipNumber(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ClipNumber(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ClipNumber(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestLastRecordedClip(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    int
		wantOK  bool
	}{
		{"header only", Header + "\n", 0, false},
		{"last row", Header + "\n000001_000000_90.mp4\t1.0\t0\t1\ta\n000003_000001_90.mp4\t1.0\t0\t1\tb\n", 3, true},
		{"commented last row", Header + "\n000001_000000_90.mp4\t1.0\t0\t1\ta\n#000004_000000_90.mp4\t1.0\t0\t1\tb\n\n", 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".conf")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			got, ok, err := LastRecordedClip(path)
			if err != nil {
				t.Fatalf("LastRecordedClip() error = %v", err)
			}
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("LastRecordedClip() = %d, %v, want %d, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSplitCaption(t *testing.T) {
	tests := []struct {
		line        string
		wantColumns string
		wantCaption string
		wantOK      bool
	}{
		{"a.mp4\t1.0\t0\t1\thello", "a.mp4\t1.0\t0\t1\t", "hello", true},
		{"a.mp4\t1.0\t0\t1\t", "a.mp4\t1.0\t0\t1\t", "", true},
		{"#a.mp4\t1.0\t0\t1\thello", "", "", false},
		{"", "", "", false},
		{"a.mp4\t1.0\t0", "", "", false},
	}

	for _, tt := range tests {
		columns, caption, ok := SplitCaption(tt.line)
		if columns != tt.wantColumns || caption != tt.wantCaption || ok != tt.wantOK {
			t.Errorf("SplitCaption(%q) = %q, %q, %v, want %q, %q, %v",
				tt.line, columns, caption, ok, tt.wantColumns, tt.wantCaption, tt.wantOK)
		}
	}
}

func TestReplaceCaption(t *testing.T) {
	tests := []struct {
		line    string
		caption string
		want    string
	}{
		{"a.mp4\t1.0\t0\t1\thello", "hola", "a.mp4\t1.0\t0\t1\thola"},
		{"a.mp4\t1.0\t0\t1\thello # retake", "hola", "a.mp4\t1.0\t0\t1\thola # retake"},
		{"", "hola", ""},
	}

	for _, tt := range tests {
		if got := ReplaceCaption(tt.line, tt.caption); got != tt.want {
			t.Errorf("ReplaceCaption(%q, %q) = %q, want %q", tt.line, tt.caption, got, tt.want)
		}
	}
}
