package scraper

import (
	"testing"
)

const anekalogamFixture = `
<html><body>
  <div class="last-update">Update harga: 29 Agustus 2026, 08:12 WIB</div>
  <table class="lm-table">
    <tr><td>Berat</td><td>Harga Jual</td><td>Harga Beli</td></tr>
    <tr><td>0,5 gram</td><td>Rp 615.000</td><td>Rp 580.000</td></tr>
    <tr><td>1 gram</td><td>Rp 1.230.000</td><td>Rp 1.160.000</td></tr>
  </table>
  <table class="unrelated">
    <tr><td>bukan harga</td><td>abaikan</td></tr>
  </table>
</body></html>`

const logamMuliaFixture = `
<html><body>
  <span class="publish-date">29 Agustus 2026</span>
  <h2>Emas Batangan</h2>
  <table class="gold-price">
    <tr><td>1 gram</td><td>Rp 1.000.000</td><td>Rp 950.000</td></tr>
  </table>
  <h2>Emas Batangan CertiEye</h2>
  <table class="gold-price">
    <tr><td>1 gram</td><td>Rp 1.020.000</td><td>Rp 960.000</td></tr>
  </table>
  <h2>Gift Series</h2>
  <table class="gold-price">
    <tr><td>0,5 gram</td><td>Rp 650.000</td><td></td></tr>
  </table>
</body></html>`

const indogoldFixture = `
<html><body>
  <p class="update-time">29/08/2026 08:00</p>
  <table class="table-price">
    <tr><td>1 gr</td><td>Rp 1.150.000</td></tr>
    <tr><td>dekorasi</td></tr>
  </table>
</body></html>`

func TestAnekalogamExtract(t *testing.T) {
	ext, err := For("anekalogam")
	if err != nil {
		t.Fatal(err)
	}

	fields, publishedAt, err := ext.Extract([]byte(anekalogamFixture))
	if err != nil {
		t.Fatal(err)
	}

	if publishedAt != "Update harga: 29 Agustus 2026, 08:12 WIB" {
		t.Errorf("publishedAt: got %q", publishedAt)
	}
	// header row survives extraction (the normalizer drops it), the
	// unrelated table does not
	if len(fields) != 3 {
		t.Fatalf("fields: got %d, want 3", len(fields))
	}
	if fields[1].WeightText != "0,5 gram" || fields[1].SellText != "Rp 615.000" || fields[1].BuyText != "Rp 580.000" {
		t.Errorf("unexpected row: %+v", fields[1])
	}
	if fields[1].Category != "anekalogam" {
		t.Errorf("category: got %q, want %q", fields[1].Category, "anekalogam")
	}
}

func TestLogamMuliaHeadingCategories(t *testing.T) {
	ext, err := For("logammulia")
	if err != nil {
		t.Fatal(err)
	}

	fields, publishedAt, err := ext.Extract([]byte(logamMuliaFixture))
	if err != nil {
		t.Fatal(err)
	}

	if publishedAt != "29 Agustus 2026" {
		t.Errorf("publishedAt: got %q", publishedAt)
	}
	if len(fields) != 3 {
		t.Fatalf("fields: got %d, want 3", len(fields))
	}

	wantCategories := []string{"antam", "certieye", "gift-series"}
	for i, want := range wantCategories {
		if fields[i].Category != want {
			t.Errorf("fields[%d].Category: got %q, want %q", i, fields[i].Category, want)
		}
	}
}

func TestIndogoldSingleColumn(t *testing.T) {
	ext, err := For("indogold")
	if err != nil {
		t.Fatal(err)
	}

	fields, _, err := ext.Extract([]byte(indogoldFixture))
	if err != nil {
		t.Fatal(err)
	}

	// the single-cell decoration row is not even a candidate
	if len(fields) != 1 {
		t.Fatalf("fields: got %d, want 1", len(fields))
	}
	if fields[0].BuyText != "" {
		t.Errorf("BuyText should be empty for a source without a buyback column, got %q", fields[0].BuyText)
	}
}

func TestForUnknownSelector(t *testing.T) {
	_, err := For("foo")
	if err == nil {
		t.Fatal("expected error for unknown selector")
	}
}

func TestKnownIsSorted(t *testing.T) {
	known := Known()
	if len(known) != 4 {
		t.Fatalf("known sources: got %d, want 4", len(known))
	}
	for i := 1; i < len(known); i++ {
		if known[i-1] >= known[i] {
			t.Errorf("Known() not sorted: %v", known)
		}
	}
}
