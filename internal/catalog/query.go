package catalog

import (
	"fmt"
	"strings"
)

// Relation is a reference table joined into a list query.
type Relation int

const (
	RelCity Relation = iota
	RelLevel
	RelDegree
	RelIndustry
)

// JoinKind is the join strictness used for a relation.
type JoinKind string

const (
	JoinLeft  JoinKind = "LEFT JOIN"
	JoinInner JoinKind = "INNER JOIN"
)

type relationSpec struct {
	table string
	alias string
	fk    string
}

type entitySpec struct {
	table     string
	alias     string
	columns   string
	relations []Relation
	specs     map[Relation]relationSpec
}

const (
	jobColumns = `j.id, j.user_id, j.title, j.city_id, j.min_years, j.level_id, j.degree_required_id, j.industry_id,
       j.salary_min, j.salary_max, j.created_at, c.name, cl.name, d.name, i.name`
	resumeColumns = `r.id, r.user_id, r.candidate_name, r.gender, r.expected_city_id, r.years_of_experience,
       r.current_level_id, r.expected_title, r.expected_salary_min, r.expected_salary_max, r.avatar_key, r.created_at,
       c.name, cl.name`
)

var (
	jobEntity = entitySpec{
		table:     "jobs",
		alias:     "j",
		columns:   jobColumns,
		relations: []Relation{RelCity, RelLevel, RelDegree, RelIndustry},
		specs: map[Relation]relationSpec{
			RelCity:     {table: "cities", alias: "c", fk: "j.city_id"},
			RelLevel:    {table: "career_levels", alias: "cl", fk: "j.level_id"},
			RelDegree:   {table: "degrees", alias: "d", fk: "j.degree_required_id"},
			RelIndustry: {table: "industries", alias: "i", fk: "j.industry_id"},
		},
	}
	resumeEntity = entitySpec{
		table:     "resumes",
		alias:     "r",
		columns:   resumeColumns,
		relations: []Relation{RelCity, RelLevel},
		specs: map[Relation]relationSpec{
			RelCity:  {table: "cities", alias: "c", fk: "r.expected_city_id"},
			RelLevel: {table: "career_levels", alias: "cl", fk: "r.current_level_id"},
		},
	}
)

// Filters maps a relation to the reference name it must equal.
type Filters map[Relation]string

// Active reports whether a non-empty filter is set on rel.
func (f Filters) Active(rel Relation) bool {
	return strings.TrimSpace(f[rel]) != ""
}

// JoinFor returns INNER when rel is filtered and LEFT otherwise, so unfiltered
// relations never drop rows with a null reference.
func JoinFor(rel Relation, f Filters) JoinKind {
	if f.Active(rel) {
		return JoinInner
	}
	return JoinLeft
}

// Pagination is an offset/limit window.
type Pagination struct {
	Offset int
	Limit  int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Normalize clamps the window to sane bounds.
func (p Pagination) Normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	return p
}

// JobFilter selects jobs by reference names.
type JobFilter struct {
	City     string
	Level    string
	Industry string
	Page     Pagination
}

func (f JobFilter) filters() Filters {
	return Filters{RelCity: f.City, RelLevel: f.Level, RelIndustry: f.Industry}
}

// ResumeFilter selects resumes by reference names.
type ResumeFilter struct {
	City  string
	Level string
	Page  Pagination
}

func (f ResumeFilter) filters() Filters {
	return Filters{RelCity: f.City, RelLevel: f.Level}
}

type listQuery struct {
	sql   string
	count string
	args  []any
}

func buildList(e entitySpec, f Filters, page Pagination) listQuery {
	page = page.Normalize()

	var from strings.Builder
	fmt.Fprintf(&from, "FROM %s %s", e.table, e.alias)
	var where []string
	var args []any
	for _, rel := range e.relations {
		spec := e.specs[rel]
		fmt.Fprintf(&from, "\n%s %s %s ON %s.id = %s", JoinFor(rel, f), spec.table, spec.alias, spec.alias, spec.fk)
		if f.Active(rel) {
			args = append(args, strings.TrimSpace(f[rel]))
			where = append(where, fmt.Sprintf("%s.name = $%d", spec.alias, len(args)))
		}
	}
	body := from.String()
	if len(where) > 0 {
		body += "\nWHERE " + strings.Join(where, " AND ")
	}

	count := "SELECT count(*) " + body
	listArgs := append(append([]any{}, args...), page.Limit, page.Offset)
	list := fmt.Sprintf("SELECT %s\n%s\nORDER BY %s.id\nLIMIT $%d OFFSET $%d",
		e.columns, body, e.alias, len(args)+1, len(args)+2)

	return listQuery{sql: list, count: count, args: listArgs}
}

// countArgs returns the filter arguments without the paging pair.
func (q listQuery) countArgs() []any {
	return q.args[:len(q.args)-2]
}

func buildJobList(f JobFilter) listQuery {
	return buildList(jobEntity, f.filters(), f.Page)
}

func buildResumeList(f ResumeFilter) listQuery {
	return buildList(resumeEntity, f.filters(), f.Page)
}

// selectOne returns the detail query for a single row of e.
func selectOne(e entitySpec) string {
	q := buildList(e, nil, Pagination{})
	body := q.count[len("SELECT count(*) "):]
	return fmt.Sprintf("SELECT %s\n%s\nWHERE %s.id = $1", e.columns, body, e.alias)
}

// selectMany returns the query for rows of e whose ids are in the int8
// array bound to $1.
func selectMany(e entitySpec) string {
	q := buildList(e, nil, Pagination{})
	body := q.count[len("SELECT count(*) "):]
	return fmt.Sprintf("SELECT %s\n%s\nWHERE %s.id = ANY($1)\nORDER BY %s.id", e.columns, body, e.alias, e.alias)
}
