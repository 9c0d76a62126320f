package classfile

import (
	"reflect"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		flags   AccessFlags
		ctx     Context
		variant Variant
		want    []string
	}{
		{"class super", 0x0021, ContextClass, VariantOrdinary, []string{"public", "super"}},
		{"class identity", 0x0021, ContextClass, VariantValueObjects, []string{"public", "identity"}},
		{"requires transitive", 0x0021, ContextRequires, VariantOrdinary, []string{"public", "transitive"}},
		{"method synchronized", 0x0021, ContextMethod, VariantOrdinary, []string{"public", "synchronized"}},
		{"module open", 0x0020, ContextModule, VariantOrdinary, []string{"open"}},
		{"field volatile", 0x0040, ContextField, VariantOrdinary, []string{"volatile"}},
		{"method bridge", 0x0040, ContextMethod, VariantOrdinary, []string{"bridge"}},
		{"requires static", 0x0040, ContextRequires, VariantOrdinary, []string{"static"}},
		{"field transient", 0x0080, ContextField, VariantOrdinary, []string{"transient"}},
		{"method varargs", 0x0089, ContextMethod, VariantOrdinary, []string{"public", "static", "varargs"}},
		{"class module", 0x8000, ContextClass, VariantOrdinary, []string{"module"}},
		{"exports mandated", 0x9000, ContextExports, VariantOrdinary, []string{"synthetic", "mandated"}},
		{"field strict residue", 0x0800, ContextField, VariantOrdinary, []string{"0x0800"}},
		{"field strict init", 0x0800, ContextField, VariantValueObjects, []string{"strict"}},
		{"inner class super residue", 0x0021, ContextInnerClass, VariantOrdinary, []string{"public", "0x0020"}},
		{"empty", 0, ContextClass, VariantOrdinary, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.flags, tt.ctx, tt.variant)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Render(0x%04x, %s, %s) = %q, want %q", uint16(tt.flags), tt.ctx, tt.variant, got, tt.want)
			}
		})
	}
}

func TestRenderIsPure(t *testing.T) {
	first := Render(0x0021, ContextClass, VariantOrdinary)
	Render(0x0021, ContextClass, VariantValueObjects)
	Render(0x0021, ContextRequires, VariantOrdinary)
	again := Render(0x0021, ContextClass, VariantOrdinary)
	if !reflect.DeepEqual(first, again) {
		t.Errorf("Render changed between calls: %q then %q", first, again)
	}
}

func TestNames(t *testing.T) {
	got := Names(0x0009, ContextMethod, VariantOrdinary)
	want := []string{"ACC_PUBLIC", "ACC_STATIC"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %q, want %q", got, want)
	}
	got = Names(0x0800, ContextField, VariantValueObjects)
	if !reflect.DeepEqual(got, []string{"ACC_STRICT_INIT"}) {
		t.Errorf("Names() = %q, want [ACC_STRICT_INIT]", got)
	}
}

func TestIllegal(t *testing.T) {
	tests := []struct {
		name  string
		flags AccessFlags
		ctx   Context
		want  AccessFlags
	}{
		{"field synchronized", 0x0020, ContextField, 0x0020},
		{"method abstract", 0x0409, ContextMethod, 0},
		{"requires public", 0x0021, ContextRequires, 0x0001},
		{"class private", 0x0003, ContextClass, 0x0002},
		{"method parameter final", 0x0010, ContextMethodParameters, 0},
		{"opens static", 0x0008, ContextOpens, 0x0008},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := tt.flags
			if got := Illegal(flags, tt.ctx, VariantOrdinary); got != tt.want {
				t.Errorf("Illegal(0x%04x, %s) = 0x%04x, want 0x%04x", uint16(tt.flags), tt.ctx, uint16(got), uint16(tt.want))
			}
			if flags != tt.flags {
				t.Error("Illegal modified its input")
			}
		})
	}
}

func TestParseContext(t *testing.T) {
	for ctx := ContextClass; ctx <= ContextMethodParameters; ctx++ {
		got, err := ParseContext(ctx.String())
		if err != nil || got != ctx {
			t.Errorf("ParseContext(%q) = %v, %v, want %v", ctx.String(), got, err, ctx)
		}
	}
	if _, err := ParseContext("nope"); err == nil {
		t.Error("ParseContext(\"nope\") error = nil")
	}
}

func TestModifierSet(t *testing.T) {
	f := &FieldInfo{AccessFlags: AccPrivate | AccStatic | AccFinal}
	got := f.Modifiers().Keywords(VariantOrdinary)
	want := []string{"private", "static", "final"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords() = %q, want %q", got, want)
	}
}
