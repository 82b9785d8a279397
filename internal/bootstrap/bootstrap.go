// Package bootstrap replaces the demo company schema with a fixed seed.
//
// Run is destructive: departments, employees and projects are dropped and
// recreated. Statements run one at a time outside a transaction and the first
// failure aborts the run, leaving whatever was already applied in place.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Tables lists the managed tables in creation order.
var Tables = []string{"departments", "employees", "projects"}

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Summary struct {
	Departments int
	Employees   int
	Projects    int
}

const createDepartmentsSQL = `CREATE TABLE departments (
	department_id INTEGER PRIMARY KEY,
	department_name TEXT NOT NULL UNIQUE
)`

const createEmployeesSQL = `CREATE TABLE employees (
	employee_id INTEGER PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	email TEXT UNIQUE,
	phone_number TEXT,
	hire_date DATE,
	job_id TEXT,
	salary DOUBLE PRECISION,
	department_id INTEGER,
	CONSTRAINT fk_department FOREIGN KEY (department_id) REFERENCES departments (department_id)
)`

const createProjectsSQL = `CREATE TABLE projects (
	project_id INTEGER PRIMARY KEY,
	project_name TEXT NOT NULL,
	start_date DATE,
	end_date DATE,
	budget DOUBLE PRECISION,
	department_id INTEGER,
	FOREIGN KEY (department_id) REFERENCES departments (department_id)
)`

// Statements returns the full bootstrap script. Child tables are dropped
// before departments so engines that enforce foreign keys on DROP accept it.
func Statements() []string {
	return []string{
		"DROP TABLE IF EXISTS employees",
		"DROP TABLE IF EXISTS projects",
		"DROP TABLE IF EXISTS departments",
		createDepartmentsSQL,
		createEmployeesSQL,
		createProjectsSQL,
		insertDepartmentsSQL(Departments),
		insertEmployeesSQL(Employees),
		insertProjectsSQL(Projects),
	}
}

func Run(ctx context.Context, db DB, logger *slog.Logger) (Summary, error) {
	if db == nil {
		return Summary{}, fmt.Errorf("database is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	for i, statement := range Statements() {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return Summary{}, fmt.Errorf("bootstrap statement %d (%s): %w", i+1, firstLine(statement), err)
		}
		logger.DebugContext(ctx, "bootstrap statement applied", slog.Int("step", i+1), slog.String("statement", firstLine(statement)))
	}

	summary, err := Count(ctx, db)
	if err != nil {
		return Summary{}, err
	}
	logger.InfoContext(ctx, "database bootstrapped",
		slog.Int("departments", summary.Departments),
		slog.Int("employees", summary.Employees),
		slog.Int("projects", summary.Projects),
	)
	return summary, nil
}

func Count(ctx context.Context, db DB) (Summary, error) {
	var summary Summary
	targets := map[string]*int{
		"departments": &summary.Departments,
		"employees":   &summary.Employees,
		"projects":    &summary.Projects,
	}
	for _, table := range Tables {
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(targets[table]); err != nil {
			return Summary{}, fmt.Errorf("count %s: %w", table, err)
		}
	}
	return summary, nil
}

func insertDepartmentsSQL(rows []Department) string {
	values := make([]string, 0, len(rows))
	for _, row := range rows {
		values = append(values, tuple(strconv.Itoa(row.ID), quote(row.Name)))
	}
	return "INSERT INTO departments (department_id, department_name) VALUES\n" + strings.Join(values, ",\n")
}

func insertEmployeesSQL(rows []Employee) string {
	values := make([]string, 0, len(rows))
	for _, row := range rows {
		values = append(values, tuple(
			strconv.Itoa(row.ID),
			quote(row.FirstName),
			quote(row.LastName),
			quote(row.Email),
			quote(row.PhoneNumber),
			quote(row.HireDate),
			quote(row.JobID),
			money(row.Salary),
			strconv.Itoa(row.DepartmentID),
		))
	}
	return "INSERT INTO employees (employee_id, first_name, last_name, email, phone_number, hire_date, job_id, salary, department_id) VALUES\n" +
		strings.Join(values, ",\n")
}

func insertProjectsSQL(rows []Project) string {
	values := make([]string, 0, len(rows))
	for _, row := range rows {
		values = append(values, tuple(
			strconv.Itoa(row.ID),
			quote(row.Name),
			quote(row.StartDate),
			quote(row.EndDate),
			money(row.Budget),
			strconv.Itoa(row.DepartmentID),
		))
	}
	return "INSERT INTO projects (project_id, project_name, start_date, end_date, budget, department_id) VALUES\n" +
		strings.Join(values, ",\n")
}

func tuple(values ...string) string {
	return "\t(" + strings.Join(values, ", ") + ")"
}

func quote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func money(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

func firstLine(statement string) string {
	line, _, _ := strings.Cut(statement, "\n")
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), "("))
}
