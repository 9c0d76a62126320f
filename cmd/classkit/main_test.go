package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dhamidi/classkit/classfile"
	"github.com/spf13/cobra"
)

func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SilenceUsage = true
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeSampleClass writes a class with one constructor carrying a stack
// map and returns its path.
func writeSampleClass(t *testing.T, dir string) string {
	t.Helper()
	cp := classfile.NewConstantPool()
	cf := &classfile.ClassFile{
		MajorVersion: 52,
		ConstantPool: cp,
		AccessFlags:  classfile.AccPublic | classfile.AccSuper,
	}
	cf.ThisClass = cp.AddClass("pkg/Sample")
	cf.SuperClass = cp.AddClass("java/lang/Object")
	code := &classfile.CodeAttribute{
		MaxStack:  1,
		MaxLocals: 3,
		Code:      []byte{0xB1},
		Attributes: []classfile.AttributeInfo{{
			NameIndex: cp.AddUtf8("StackMapTable"),
			Parsed:    &classfile.StackMapTableAttribute{Entries: []classfile.StackMapFrame{&classfile.SameFrame{Type: 0}}},
		}},
	}
	cf.Methods = []classfile.MethodInfo{{
		AccessFlags:     classfile.AccPublic,
		NameIndex:       cp.AddUtf8("<init>"),
		DescriptorIndex: cp.AddUtf8("(II)V"),
		Attributes:      []classfile.AttributeInfo{{NameIndex: cp.AddUtf8("Code"), Parsed: code}},
	}}
	path := filepath.Join(dir, "Sample.class")
	if err := classfile.WriteFile(path, cf); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestDescCmd(t *testing.T) {
	out, err := runCmd(t, newDescCmd(), "(ILjava/lang/String;)V")
	if err != nil {
		t.Fatalf("desc error = %v", err)
	}
	want := "(int, java.lang.String) void\n(ILjava/lang/String;)V\n"
	if out != want {
		t.Errorf("desc output = %q, want %q", out, want)
	}

	if _, err := runCmd(t, newDescCmd(), "(Q)V"); err == nil {
		t.Error("desc accepted an invalid descriptor")
	}
	if _, err := runCmd(t, newDescCmd(), "--kind", "nope", "I"); err == nil {
		t.Error("desc accepted an unknown kind")
	}
}

func TestFlagsCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "method",
			args: []string{"0x0021", "-c", "method"},
			want: "keywords\tpublic synchronized\nnames\tACC_PUBLIC ACC_SYNCHRONIZED\n",
		},
		{
			name: "field strict before value objects",
			args: []string{"0x0800", "-c", "field"},
			want: "keywords\t0x0800\nnames\t0x0800\nillegal\t0x0800\n",
		},
		{
			name: "field strict with value objects",
			args: []string{"0x0800", "-c", "field", "--class-version", "69.65535"},
			want: "keywords\tstrict\nnames\tACC_STRICT_INIT\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCmd(t, newFlagsCmd(), tt.args...)
			if err != nil {
				t.Fatalf("flags error = %v", err)
			}
			if out != tt.want {
				t.Errorf("flags output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestFramesCmd(t *testing.T) {
	path := writeSampleClass(t, t.TempDir())
	out, err := runCmd(t, newFramesCmd(), path, "<init>")
	if err != nil {
		t.Fatalf("frames error = %v", err)
	}
	if want := "<init>(II)V\n  0: same_frame\n"; out != want {
		t.Errorf("frames output = %q, want %q", out, want)
	}
	if _, err := runCmd(t, newFramesCmd(), path, "missing"); err == nil {
		t.Error("frames found a method that does not exist")
	}
}

func TestRoundtripCmd(t *testing.T) {
	dir := t.TempDir()
	path := writeSampleClass(t, dir)
	out, err := runCmd(t, newRoundtripCmd(), dir)
	if err != nil {
		t.Fatalf("roundtrip error = %v", err)
	}
	if want := "ok\t" + path + "\t0 diagnostics\n"; out != want {
		t.Errorf("roundtrip output = %q, want %q", out, want)
	}
}

func TestCollectClassFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"A.class", "sub/B.class", "notes.txt"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	files, err := collectClassFiles([]string{dir, filepath.Join(dir, "notes.txt")})
	if err != nil {
		t.Fatalf("collectClassFiles() error = %v", err)
	}
	want := []string{
		filepath.Join(dir, "A.class"),
		filepath.Join(dir, "sub", "B.class"),
		filepath.Join(dir, "notes.txt"),
	}
	if strings.Join(files, "\n") != strings.Join(want, "\n") {
		t.Errorf("files = %v, want %v", files, want)
	}
	if _, err := collectClassFiles([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Error("collectClassFiles() accepted a missing path")
	}
}

func TestForEachFileKeepsOrder(t *testing.T) {
	files := []string{"a", "b", "c", "d", "e"}
	var out bytes.Buffer
	err := forEachFile(context.Background(), &out, files, 3, func(ctx context.Context, path string, buf *bytes.Buffer) error {
		fmt.Fprintln(buf, path)
		return nil
	})
	if err != nil {
		t.Fatalf("forEachFile() error = %v", err)
	}
	if got := out.String(); got != "a\nb\nc\nd\ne\n" {
		t.Errorf("output = %q", got)
	}

	err = forEachFile(context.Background(), &bytes.Buffer{}, files, 1, func(ctx context.Context, path string, buf *bytes.Buffer) error {
		if path == "c" {
			return fmt.Errorf("boom")
		}
		return nil
	})
	if err == nil || !strings.HasPrefix(err.Error(), "c: ") {
		t.Errorf("forEachFile() error = %v, want one naming c", err)
	}
}

func TestFirstDifference(t *testing.T) {
	tests := []struct {
		a, b []byte
		want int
	}{
		{[]byte{1, 2, 3}, []byte{1, 2, 3}, -1},
		{[]byte{1, 2, 3}, []byte{1, 9, 3}, 1},
		{[]byte{1, 2}, []byte{1, 2, 3}, 2},
		{nil, nil, -1},
	}
	for _, tt := range tests {
		if got := firstDifference(tt.a, tt.b); got != tt.want {
			t.Errorf("firstDifference(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

const sampleListing = "class\tpkg/Sample\t52.0\tpublic,super\n" +
	"super\tjava/lang/Object\n" +
	"method\t<init>\t(int, int) void\tpublic\n"

func TestDumpCmd(t *testing.T) {
	dir := t.TempDir()
	path := writeSampleClass(t, dir)

	out, err := runCmd(t, newDumpCmd(), path)
	if err != nil {
		t.Fatalf("dump error = %v", err)
	}
	if out != sampleListing {
		t.Errorf("dump output = %q, want %q", out, sampleListing)
	}

	out, err = runCmd(t, newDumpCmd(), "--frames", path)
	if err != nil {
		t.Fatalf("dump --frames error = %v", err)
	}
	if want := sampleListing + "\tframe\t0: same_frame\n"; out != want {
		t.Errorf("dump --frames output = %q, want %q", out, want)
	}

	other := writeSampleClass(t, t.TempDir())
	out, err = runCmd(t, newDumpCmd(), path, other)
	if err != nil {
		t.Fatalf("dump of two files error = %v", err)
	}
	want := "file\t" + path + "\n" + sampleListing + "file\t" + other + "\n" + sampleListing
	if out != want {
		t.Errorf("dump of two files = %q, want %q", out, want)
	}
}

func TestDumpCmdFatalCBOR(t *testing.T) {
	dir := t.TempDir()
	data, err := os.ReadFile(writeSampleClass(t, dir))
	if err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(dir, "Broken.class")
	if err := os.WriteFile(broken, data[:5], 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, newDumpCmd(), "-f", "cbor", broken)
	if err == nil || !strings.Contains(err.Error(), "1 of 1 files failed to decode") {
		t.Errorf("dump error = %v, want a decode failure count", err)
	}
	if out != "" {
		t.Errorf("dump wrote %d bytes for a class it could not decode", len(out))
	}
}

func TestSnapshotCmds(t *testing.T) {
	src := t.TempDir()
	path := writeSampleClass(t, src)
	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	outDir := t.TempDir()

	out, err := runCmd(t, newSnapshotCmd(), "write", "-o", outDir, path)
	if err != nil {
		t.Fatalf("snapshot write error = %v", err)
	}
	snap := filepath.Join(outDir, "pkg.Sample.cbor")
	if want := path + "\t" + snap + "\n"; out != want {
		t.Errorf("snapshot write output = %q, want %q", out, want)
	}

	rebuilt := filepath.Join(outDir, "Rebuilt.class")
	if _, err := runCmd(t, newSnapshotCmd(), "read", "-o", rebuilt, snap); err != nil {
		t.Fatalf("snapshot read error = %v", err)
	}
	got, err := os.ReadFile(rebuilt)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("rebuilt class differs from the original")
	}

	out, err = runCmd(t, newSnapshotCmd(), "read", snap)
	if err != nil {
		t.Fatalf("snapshot read error = %v", err)
	}
	if out != sampleListing {
		t.Errorf("snapshot read listing = %q, want %q", out, sampleListing)
	}
}

func TestSnapshotWriteNameCollision(t *testing.T) {
	a := writeSampleClass(t, t.TempDir())
	b := writeSampleClass(t, t.TempDir())
	outDir := t.TempDir()

	_, err := runCmd(t, newSnapshotCmd(), "write", "-o", outDir, a, b)
	if err == nil || !strings.Contains(err.Error(), "already written from") {
		t.Errorf("snapshot write error = %v, want a name collision", err)
	}
}
