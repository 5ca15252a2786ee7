// Command gymcore 會籍核心的維運指令
//
//	gymcore [-config path] <command> [flags]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appledger "github.com/jackyeh168/gym_crm/src/internal/application/ledger"
	appmember "github.com/jackyeh168/gym_crm/src/internal/application/member"
	appnotification "github.com/jackyeh168/gym_crm/src/internal/application/notification"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/config"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/database"
	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, a *app, cfg *config.Config, args []string) error
}

var commands = []command{
	{"migrate", "create or update database tables", runMigrate},
	{"enroll-member", "enroll a new member", runEnrollMember},
	{"register", "register a member for a package", runRegister},
	{"pay", "create a payment for a registration", runPay},
	{"confirm-payment", "confirm a processing payment", runConfirmPayment},
	{"cancel-payment", "cancel a processing payment", runCancelPayment},
	{"record-attendance", "record one completed session", runRecordAttendance},
	{"recompute-tiers", "recompute member tiers", runRecomputeTiers},
	{"scan-expired", "issue package-expired notifications", runScanExpired},
	{"notifications", "list a member's notifications", runNotifications},
	{"serve-metrics", "serve Prometheus metrics until interrupted", runServeMetrics},
}

func main() {
	configPath := flag.String("config", "", "path to config file (default: search configs/ and .)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cmd, ok := findCommand(flag.Arg(0))
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("failed to initialize", zap.Error(err))
	}
	defer a.Close()

	if err := cmd.run(ctx, a, cfg, flag.Args()[1:]); err != nil {
		log.WithError(err).Error("command failed", map[string]interface{}{"command": cmd.name})
		stop()
		a.Close()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: gymcore [-config path] <command> [flags]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-18s %s\n", c.name, c.usage)
	}
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runMigrate(_ context.Context, a *app, _ *config.Config, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	_ = fs.Parse(args)

	if err := database.AutoMigrate(a.db); err != nil {
		return err
	}
	a.log.Info("database migrated", nil)
	return nil
}

func runEnrollMember(ctx context.Context, a *app, _ *config.Config, args []string) error {
	fs := flag.NewFlagSet("enroll-member", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	phone := fs.String("phone", "", "mobile number (optional)")
	joined := fs.String("joined", "", "continuous membership start, YYYY-MM-DD (default: today)")
	_ = fs.Parse(args)

	cmd := appmember.EnrollMemberCommand{DisplayName: *name, PhoneNumber: *phone}
	if *joined != "" {
		t, err := time.ParseInLocation(time.DateOnly, *joined, time.UTC)
		if err != nil {
			return fmt.Errorf("invalid -joined: %w", err)
		}
		cmd.JoinedAt = t
	}

	result, err := a.enroll.Execute(ctx, cmd)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runRegister(ctx context.Context, a *app, _ *config.Config, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	memberID := fs.String("member", "", "member id")
	packageID := fs.String("package", "", "package id")
	branchID := fs.String("branch", "", "branch id (optional)")
	_ = fs.Parse(args)

	reg, err := a.ledger.CreateRegistration(ctx, appledger.CreateRegistrationCommand{
		MemberID:  *memberID,
		PackageID: *packageID,
		BranchID:  *branchID,
	})
	if err != nil {
		return err
	}
	return printJSON(reg)
}

func runPay(ctx context.Context, a *app, _ *config.Config, args []string) error {
	fs := flag.NewFlagSet("pay", flag.ExitOnError)
	memberID := fs.String("member", "", "member id")
	registrationID := fs.String("registration", "", "registration id")
	method := fs.String("method", "", "payment method label")
	_ = fs.Parse(args)

	pay, err := a.ledger.CreatePayment(ctx, appledger.CreatePaymentCommand{
		MemberID:       *memberID,
		RegistrationID: *registrationID,
		Method:         *method,
	})
	if err != nil {
		return err
	}
	return printJSON(pay)
}

func runConfirmPayment(ctx context.Context, a *app, _ *config.Config, args []string) error {
	fs := flag.NewFlagSet("confirm-payment", flag.ExitOnError)
	paymentID := fs.String("payment", "", "payment id")
	recompute := fs.Bool("recompute", true, "recompute the member's tier after confirming")
	_ = fs.Parse(args)

	pay, err := a.ledger.ConfirmPayment(ctx, *paymentID)
	if err != nil {
		return err
	}
	if *recompute {
		if _, err := a.tiers.Recompute(ctx, pay.MemberID); err != nil {
			a.log.WithError(err).Warn("tier recompute after payment failed", map[string]interface{}{
				"payment_id": pay.ID,
				"member_id":  pay.MemberID,
			})
		}
	}
	return printJSON(pay)
}

func runCancelPayment(ctx context.Context, a *app, _ *config.Config, args []string) error {
	fs := flag.NewFlagSet("cancel-payment", flag.ExitOnError)
	paymentID := fs.String("payment", "", "payment id")
	reason := fs.String("reason", "", "cancellation note")
	_ = fs.Parse(args)

	pay, err := a.ledger.CancelPayment(ctx, *paymentID, *reason)
	if err != nil {
		return err
	}
	return printJSON(pay)
}

func runRecordAttendance(ctx context.Context, a *app, _ *config.Config, args []string) error {
	fs := flag.NewFlagSet("record-attendance", flag.ExitOnError)
	memberID := fs.String("member", "", "member id")
	_ = fs.Parse(args)

	sessions, err := a.tiers.RecordAttendance(ctx, *memberID)
	if err != nil {
		return err
	}
	result, err := a.tiers.Recompute(ctx, *memberID)
	if err != nil {
		return err
	}
	a.log.Info("attendance recorded", map[string]interface{}{
		"member_id":          *memberID,
		"completed_sessions": sessions,
	})
	return printJSON(result)
}

func runRecomputeTiers(ctx context.Context, a *app, _ *config.Config, args []string) error {
	fs := flag.NewFlagSet("recompute-tiers", flag.ExitOnError)
	memberID := fs.String("member", "", "recompute a single member (default: all members)")
	_ = fs.Parse(args)

	if *memberID != "" {
		result, err := a.tiers.Recompute(ctx, *memberID)
		if err != nil {
			return err
		}
		return printJSON(result)
	}

	result, err := a.tiers.RecomputeAll(ctx)
	if err != nil {
		return err
	}
	a.log.Info("tier recompute finished", map[string]interface{}{
		"members": result.Members,
		"changed": result.Changed,
		"failed":  result.Failed,
	})
	return result.Failures
}

func runScanExpired(ctx context.Context, a *app, _ *config.Config, args []string) error {
	fs := flag.NewFlagSet("scan-expired", flag.ExitOnError)
	_ = fs.Parse(args)

	result, err := a.expiry.ScanExpired(ctx)
	if err != nil {
		return err
	}
	a.log.Info("expiry scan finished", map[string]interface{}{
		"scanned":  result.Scanned,
		"issued":   result.Issued,
		"existing": result.Existing,
		"failed":   result.Failed,
	})
	return result.Failures
}

func runNotifications(ctx context.Context, a *app, _ *config.Config, args []string) error {
	fs := flag.NewFlagSet("notifications", flag.ExitOnError)
	memberID := fs.String("member", "", "recipient member id")
	unread := fs.Bool("unread", false, "only unread notifications")
	limit := fs.Int("limit", 20, "maximum number of notifications")
	markRead := fs.Bool("mark-read", false, "mark all listed notifications as read")
	_ = fs.Parse(args)

	list, err := a.notifications.ListForRecipient(ctx, appnotification.ListQuery{
		RecipientID: *memberID,
		UnreadOnly:  *unread,
		Limit:       *limit,
	})
	if err != nil {
		return err
	}
	unreadCount, err := a.notifications.UnreadCount(ctx, *memberID)
	if err != nil {
		return err
	}
	if err := printJSON(map[string]interface{}{"unread": unreadCount, "notifications": list}); err != nil {
		return err
	}

	if *markRead {
		marked, err := a.notifications.MarkAllRead(ctx, *memberID)
		if err != nil {
			return err
		}
		a.log.Info("notifications marked read", map[string]interface{}{"member_id": *memberID, "count": marked})
	}
	return nil
}

func runServeMetrics(ctx context.Context, a *app, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve-metrics", flag.ExitOnError)
	addr := fs.String("addr", cfg.Metrics.Address, "listen address")
	_ = fs.Parse(args)

	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("metrics server listening", map[string]interface{}{"address": *addr, "path": cfg.Metrics.Path})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down metrics server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
