package repo

import "testing"

func TestJoin(t *testing.T) {
	got := Join("SELECT 1", "", "FROM t", "  ", "WHERE x = $1")
	want := "SELECT 1 FROM t WHERE x = $1"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestJoinWhere(t *testing.T) {
	if got := JoinWhere(); got != "" {
		t.Fatalf("expected empty clause, got %q", got)
	}
	got := JoinWhere("a = $1", "b = $2")
	want := "WHERE a = $1 AND b = $2"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatLimitOffset(t *testing.T) {
	cases := []struct {
		limit, offset int
		want          string
	}{
		{10, 20, "LIMIT 10 OFFSET 20"},
		{10, 0, "LIMIT 10"},
		{0, 20, "OFFSET 20"},
		{0, 0, ""},
	}
	for _, tc := range cases {
		if got := FormatLimitOffset(tc.limit, tc.offset); got != tc.want {
			t.Fatalf("FormatLimitOffset(%d, %d) = %q, want %q", tc.limit, tc.offset, got, tc.want)
		}
	}
}

func TestInsert(t *testing.T) {
	got := Insert("kpi_data", []string{"week_date", "efficiency"}, "id")
	want := "INSERT INTO kpi_data (week_date, efficiency) VALUES ($1, $2) RETURNING id"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestUpdate(t *testing.T) {
	got := Update("staff_members", []string{"position", "status"}, "id = $3")
	want := "UPDATE staff_members SET position = $1, status = $2 WHERE id = $3"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
