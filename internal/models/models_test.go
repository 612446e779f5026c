package models

import "testing"

func TestGetSetColumns(t *testing.T) {
	var rec JobApplication
	for i, col := range Columns {
		rec.Set(col, col+"-value")
		if got := rec.Get(col); got != col+"-value" {
			t.Fatalf("column %d %s = %q", i, col, got)
		}
	}
	if rec.Extra != nil {
		t.Fatalf("schema columns must not spill into Extra: %v", rec.Extra)
	}
	rec.Set("notes", "n")
	if rec.Get("notes") != "n" || IsSchemaColumn("notes") || !IsSchemaColumn(ColSalary) {
		t.Fatalf("extra column handling broken: %+v", rec)
	}
}

func TestNeedsEnrichment(t *testing.T) {
	if !(&JobApplication{Summary: "  \n"}).NeedsEnrichment() {
		t.Error("blank summary should need enrichment")
	}
	if (&JobApplication{Summary: "done"}).NeedsEnrichment() {
		t.Error("filled summary should not need enrichment")
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := []JobApplication{{RoleTitle: "a", Extra: map[string]string{"k": "v"}}, {RoleTitle: "b"}}
	cp := Clone(orig)
	cp[0].RoleTitle = "changed"
	cp[0].Extra["k"] = "changed"
	if orig[0].RoleTitle != "a" || orig[0].Extra["k"] != "v" {
		t.Fatalf("clone shares state with original: %+v", orig[0])
	}
	if cp[1].Extra != nil {
		t.Fatal("nil Extra should stay nil")
	}
}
