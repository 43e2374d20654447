package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"genstudio/internal/adapter/repo"
	"genstudio/internal/infra"
)

func main() {
	var (
		codeFlag    string
		creditsFlag float64
		countFlag   int
		byFlag      string
	)
	flag.StringVar(&codeFlag, "code", "", "Voucher code (generated when empty)")
	flag.Float64Var(&creditsFlag, "credits", 0, "Credit value of each voucher")
	flag.IntVar(&countFlag, "count", 1, "Number of vouchers to mint")
	flag.StringVar(&byFlag, "by", "", "Issuer user id recorded on the voucher (optional)")
	flag.Parse()

	if creditsFlag <= 0 {
		fmt.Fprintln(os.Stderr, "a positive -credits value is required")
		os.Exit(1)
	}
	if countFlag < 1 {
		countFlag = 1
	}
	if codeFlag != "" && countFlag > 1 {
		fmt.Fprintln(os.Stderr, "-code only mints a single voucher, drop -count")
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "voucherctl").Logger()
	vouchers := repo.NewVoucherRepo(infra.NewSQLRunner(pool, logger))

	for i := 0; i < countFlag; i++ {
		code := strings.TrimSpace(codeFlag)
		if code == "" {
			code = newCode()
		}
		if _, err := vouchers.Create(ctx, code, creditsFlag, byFlag); err != nil {
			fmt.Fprintf(os.Stderr, "failed to mint voucher: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s\t%.2f\n", code, creditsFlag)
	}
}

// newCode derives a short human-typeable code from a random UUID.
func newCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:12])
}
