// Command minidb is an interactive shell over the table storage in this
// module: CREATE INDEX, LOAD, and SELECT against heap files and their
// optional B+-tree indexes.
package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/relstore/bplusdb/dbms/btree"
	"github.com/relstore/bplusdb/dbms/executor"
	"github.com/relstore/bplusdb/dbms/pager"
	"github.com/relstore/bplusdb/dbms/planner"
	"github.com/relstore/bplusdb/dbms/recordfile"
)

func main() {
	scriptPath := flag.String("script", "", "read statements from a file instead of stdin")
	flag.Parse()

	in := os.Stdin
	if *scriptPath != "" {
		f, err := os.Open(*scriptPath)
		if err != nil {
			log.Fatalf("minidb: %v", err)
		}
		defer f.Close()
		in = f
	}

	sc := bufio.NewScanner(in)
	interactive := *scriptPath == ""
	for {
		if interactive {
			fmt.Print("minidb> ")
		}
		if !sc.Scan() {
			break
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := execute(line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

func execute(line string) error {
	fields := strings.Fields(line)
	switch strings.ToUpper(fields[0]) {
	case "CREATE":
		return execCreateIndex(line)
	case "LOAD":
		return execLoad(line)
	case "SELECT":
		return execSelect(line)
	default:
		return fmt.Errorf("unrecognized statement: %s", fields[0])
	}
}

// execCreateIndex handles "CREATE INDEX ON <table>".
func execCreateIndex(line string) error {
	fields := strings.Fields(line)
	if len(fields) != 4 || strings.ToUpper(fields[1]) != "INDEX" || strings.ToUpper(fields[2]) != "ON" {
		return fmt.Errorf("usage: CREATE INDEX ON <table>")
	}
	table := fields[3]

	rf, err := recordfile.Open(table+".tbl", pager.ModeRead, 64)
	if err != nil {
		return fmt.Errorf("table %s does not exist: %w", table, err)
	}
	defer rf.Close()

	idx, err := btree.Open(table+".idx", pager.ModeWrite, 64)
	if err != nil {
		return err
	}
	defer idx.Close()

	cur, err := rf.Scan()
	if err != nil {
		return err
	}
	for {
		rid, key, _, ok, err := cur.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := idx.Insert(key, rid); err != nil {
			return err
		}
	}
	return nil
}

// execLoad handles "LOAD <table> FROM <csvfile> [WITH COUNT]".
func execLoad(line string) error {
	fields := strings.Fields(line)
	if len(fields) < 4 || strings.ToUpper(fields[2]) != "FROM" {
		return fmt.Errorf("usage: LOAD <table> FROM <csvfile> [WITH COUNT]")
	}
	table := fields[1]
	csvPath := fields[3]
	withCount := len(fields) >= 6 && strings.ToUpper(fields[4]) == "WITH" && strings.ToUpper(fields[5]) == "COUNT"

	f, err := os.Open(csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	rf, err := recordfile.Open(table+".tbl", pager.ModeWrite, 64)
	if err != nil {
		return err
	}
	defer rf.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2
	n := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		key, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 32)
		if err != nil {
			return fmt.Errorf("load: invalid key %q: %w", row[0], err)
		}
		if _, err := rf.Append(int32(key), []byte(row[1])); err != nil {
			return err
		}
		n++
	}

	if withCount {
		fmt.Printf("%d\n", n)
	}
	return nil
}

// execSelect handles "SELECT <proj> FROM <table> [WHERE <cond> [AND <cond>]*]".
func execSelect(line string) error {
	upper := strings.ToUpper(line)
	fromAt := strings.Index(upper, " FROM ")
	if !strings.HasPrefix(upper, "SELECT ") || fromAt < 0 {
		return fmt.Errorf("usage: SELECT <proj> FROM <table> [WHERE <cond> [AND <cond>]*]")
	}
	projStr := strings.TrimSpace(line[len("SELECT "):fromAt])
	rest := strings.TrimSpace(line[fromAt+len(" FROM "):])

	table := rest
	var condStr string
	if whereAt := strings.Index(strings.ToUpper(rest), " WHERE "); whereAt >= 0 {
		table = strings.TrimSpace(rest[:whereAt])
		condStr = strings.TrimSpace(rest[whereAt+len(" WHERE "):])
	}

	proj, err := parseProjection(projStr)
	if err != nil {
		return err
	}
	var preds []planner.Predicate
	if condStr != "" {
		for _, part := range strings.Split(condStr, " AND ") {
			p, err := parseCond(strings.TrimSpace(part))
			if err != nil {
				return err
			}
			preds = append(preds, p)
		}
	}

	rf, err := recordfile.Open(table+".tbl", pager.ModeRead, 64)
	if err != nil {
		return fmt.Errorf("table %s does not exist: %w", table, err)
	}
	defer rf.Close()

	var idx *btree.Index
	if _, statErr := os.Stat(table + ".idx"); statErr == nil {
		idx, err = btree.Open(table+".idx", pager.ModeRead, 64)
		if err != nil {
			return err
		}
		defer idx.Close()
	}

	rows, count, err := executor.Select(rf, idx, preds, proj)
	if err != nil {
		return err
	}
	printRows(rows, proj, count)
	return nil
}

func printRows(rows []executor.Row, proj planner.Projection, count int) {
	if proj == planner.ProjectCount {
		fmt.Printf("%d\n", count)
		return
	}
	for _, r := range rows {
		switch {
		case r.HasKey && r.HasValue:
			fmt.Printf("%d '%s'\n", r.Key, string(r.Value))
		case r.HasKey:
			fmt.Printf("%d\n", r.Key)
		case r.HasValue:
			fmt.Printf("%s\n", string(r.Value))
		}
	}
}

func parseProjection(s string) (planner.Projection, error) {
	switch strings.ToLower(strings.ReplaceAll(s, " ", "")) {
	case "key":
		return planner.ProjectKey, nil
	case "value":
		return planner.ProjectValue, nil
	case "*":
		return planner.ProjectBoth, nil
	case "count(*)":
		return planner.ProjectCount, nil
	default:
		return 0, fmt.Errorf("unrecognized projection: %s", s)
	}
}

// parseCond parses "<attr> <op> <literal>" where attr is "key" or "value",
// op is one of = != < <= > >=, and literal is an integer (key) or a
// single-quoted string (value).
func parseCond(s string) (planner.Predicate, error) {
	ops := []string{">=", "<=", "!=", "=", "<", ">"}
	var op string
	idx := -1
	for _, candidate := range ops {
		if i := strings.Index(s, candidate); i >= 0 && (idx < 0 || i < idx) {
			idx, op = i, candidate
		}
	}
	if idx < 0 {
		return planner.Predicate{}, fmt.Errorf("malformed condition: %s", s)
	}
	attrStr := strings.TrimSpace(s[:idx])
	litStr := strings.TrimSpace(s[idx+len(op):])

	comp, err := parseComparison(op)
	if err != nil {
		return planner.Predicate{}, err
	}

	switch strings.ToLower(attrStr) {
	case "key":
		k, err := strconv.ParseInt(litStr, 10, 32)
		if err != nil {
			return planner.Predicate{}, fmt.Errorf("malformed key literal %q: %w", litStr, err)
		}
		return planner.Predicate{Attr: planner.Key, Comp: comp, KeyLiteral: int32(k)}, nil
	case "value":
		lit := strings.Trim(litStr, "'")
		return planner.Predicate{Attr: planner.Value, Comp: comp, ValueLiteral: []byte(lit)}, nil
	default:
		return planner.Predicate{}, fmt.Errorf("unrecognized attribute: %s", attrStr)
	}
}

func parseComparison(op string) (planner.Comparison, error) {
	switch op {
	case "=":
		return planner.EQ, nil
	case "!=":
		return planner.NE, nil
	case "<":
		return planner.LT, nil
	case "<=":
		return planner.LE, nil
	case ">":
		return planner.GT, nil
	case ">=":
		return planner.GE, nil
	default:
		return 0, fmt.Errorf("unrecognized comparison: %s", op)
	}
}
