// Command stats-export reads stored section statistics back out of the
// TimescaleDB results database and writes them to CSV, optionally
// filtered by run or cross-section.
package main

import (
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
)

func main() {
	var (
		dbHost   = flag.String("db-host", "localhost", "Database host")
		dbPort   = flag.Int("db-port", 5432, "Database port")
		dbUser   = flag.String("db-user", "postgres", "Database user")
		dbPass   = flag.String("db-pass", "", "Database password")
		dbName   = flag.String("db-name", "fishpass", "Database name")
		runID    = flag.String("run", "", "Restrict export to one run ID")
		xs       = flag.String("xs", "", "Restrict export to one cross-section key (e.g. 11)")
		minCount = flag.Int("min-count", 0, "Minimum particle count per section")
		output   = flag.String("csv", "section_stats.csv", "CSV output file path")
	)
	flag.Parse()

	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		*dbHost, *dbPort, *dbUser, *dbPass, *dbName)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		fmt.Fprintf(os.Stderr, "Error pinging database: %v\n", err)
		os.Exit(1)
	}

	query := `
		SELECT run_id, section, xs, valid_particle_count, avg_velocity, sd_velocity, avg_particle
		FROM section_stats
		WHERE valid_particle_count >= $1
	`
	args := []any{*minCount}
	if *runID != "" {
		args = append(args, *runID)
		query += fmt.Sprintf(" AND run_id = $%d", len(args))
	}
	if *xs != "" {
		args = append(args, *xs)
		query += fmt.Sprintf(" AND xs = $%d", len(args))
	}
	query += " ORDER BY run_id, section"

	rows, err := db.Query(query, args...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying section stats: %v\n", err)
		os.Exit(1)
	}
	defer rows.Close()

	f, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating CSV file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"run_id", "section", "xs", "valid_particle_count", "avg_velocity", "sd_velocity", "avg_particle"}
	if err := w.Write(header); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing CSV header: %v\n", err)
		os.Exit(1)
	}

	exported := 0
	for rows.Next() {
		var (
			run              string
			section, count   int
			xsKey            string
			avgVel, sdVel    sql.NullFloat64
			avgParticleCount float64
		)
		if err := rows.Scan(&run, &section, &xsKey, &count, &avgVel, &sdVel, &avgParticleCount); err != nil {
			fmt.Fprintf(os.Stderr, "Error scanning row: %v\n", err)
			os.Exit(1)
		}

		record := []string{
			run,
			strconv.Itoa(section),
			xsKey,
			strconv.Itoa(count),
			formatNullable(avgVel),
			formatNullable(sdVel),
			strconv.FormatFloat(avgParticleCount, 'f', 1, 64),
		}
		if err := w.Write(record); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing CSV row: %v\n", err)
			os.Exit(1)
		}
		exported++
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading rows: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("exported %d sections to %s\n", exported, *output)
}

func formatNullable(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', 3, 64)
}
