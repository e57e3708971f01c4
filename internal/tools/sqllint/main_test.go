package main

import (
	"strings"
	"testing"
)

const sampleSource = "package q\n\n" +
	"const QGood = `--sql 11111111-2222-4333-8444-555555555555\nselect 1;`\n\n" +
	"const QMissing = `select id from users;`\n\n" +
	"const QDuplicate = `--sql 11111111-2222-4333-8444-555555555555\nupdate users set name = $1;`\n\n" +
	"const notSQL = \"hello world\"\n"

func TestCheckReportsMissingAndDuplicateMarkers(t *testing.T) {
	queries, err := parseFile("q.go", sampleSource)
	if err != nil {
		t.Fatalf("parseFile: %v", err)
	}
	if len(queries) != 3 {
		t.Fatalf("queries = %d, want 3", len(queries))
	}

	violations := check(queries)
	if len(violations) != 2 {
		t.Fatalf("violations = %+v, want 2", violations)
	}
	if violations[0].name != "QMissing" || !strings.Contains(violations[0].message, "missing or invalid") {
		t.Fatalf("first violation = %+v", violations[0])
	}
	if violations[1].name != "QDuplicate" || !strings.Contains(violations[1].message, "QGood") {
		t.Fatalf("second violation = %+v", violations[1])
	}
}

func TestRepositoryQueriesAreMarked(t *testing.T) {
	queries, err := collect("../../sqlinline")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(queries) == 0 {
		t.Fatalf("no queries found")
	}
	if violations := check(queries); len(violations) != 0 {
		t.Fatalf("violations: %+v", violations)
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("\n  --sql abc \nselect 1"); got != "--sql abc" {
		t.Fatalf("firstLine() = %q", got)
	}
}
