package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/borgmon/dose-alarm/pkg/bootstrap"
	"github.com/borgmon/dose-alarm/pkg/export"
	"github.com/borgmon/dose-alarm/pkg/logger"
	"github.com/borgmon/dose-alarm/pkg/models"
	"github.com/borgmon/dose-alarm/pkg/schedule"
	"github.com/borgmon/dose-alarm/pkg/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	displayTimeLayout = "Jan 2 3:04 PM"
	appointmentLayout = "2006-01-02 15:04"
)

// cli carries state shared by the commands of one invocation
type cli struct {
	configFile string
	cfg        *bootstrap.Config
	log        *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          bootstrap.AppName,
		Short:        "Medication reminders that keep ringing until you answer",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap.Load(bootstrap.Options{
				ConfigFile: c.configFile,
				Flags:      cmd.Flags(),
			})
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.LogLevel, cfg.LogDir); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			c.cfg = cfg
			c.log = logger.GetLoggerWith(logger.NameCLI, zap.String("user", cfg.User))
			c.log.Debug("Configuration loaded",
				zap.String("config_file", cfg.ConfigFile),
				zap.String("backend", cfg.StorageBackend))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logger.Sync()
		},
		RunE: func(*cobra.Command, []string) error {
			return runDesktop(c.cfg, false)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/dose-alarm/config.yaml)")
	flags.String("user", "", "user whose records are read and written")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("backend", "", "storage backend: sqlite or preferences")
	flags.String("db", "", "sqlite database path")

	root.AddCommand(
		c.runCmd(),
		c.medCmd(),
		c.historyCmd(),
		c.appointmentCmd(),
		c.exportCmd(),
		c.importCmd(),
	)
	return root
}

func (c *cli) runCmd() *cobra.Command {
	var testAlarm bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the tray app and the dose poller",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return runDesktop(c.cfg, testAlarm)
		},
	}
	cmd.Flags().BoolVar(&testAlarm, "test-alarm", false, "ring a test alarm once the app is up")
	return cmd
}

// withRecords opens the record store for a one-shot command
func (c *cli) withRecords(fn func(ctx context.Context, records store.RecordStore) error) error {
	records, err := openRecords(c.cfg, func() fyne.Preferences {
		return app.NewWithID(c.cfg.AppID).Preferences()
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := records.Close(); err != nil {
			c.log.Warn("Failed to close records", zap.Error(err))
		}
	}()
	return fn(context.Background(), records)
}

func (c *cli) medCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "med",
		Aliases: []string{"medication"},
		Short:   "Manage medications",
	}
	cmd.AddCommand(c.medAddCmd(), c.medListCmd(), c.medRemoveCmd(),
		c.medActiveCmd("pause", "Stop alarms for a medication", false),
		c.medActiveCmd("resume", "Ring alarms for a paused medication again", true),
		c.medInstructionsCmd())
	return cmd
}

func (c *cli) updateMedication(id string, patch models.MedicationPatch) error {
	return c.withRecords(func(ctx context.Context, records store.RecordStore) error {
		if err := records.UpdateMedication(ctx, c.cfg.User, id, patch); err != nil {
			return fmt.Errorf("update %s: %w", id, err)
		}
		c.log.Info("Medication updated", zap.String("medication_id", id))
		return nil
	})
}

func (c *cli) medActiveCmd(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return c.updateMedication(args[0], models.MedicationPatch{IsActive: &active})
		},
	}
}

func (c *cli) medInstructionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "instructions <id> <text>",
		Short: "Replace how a medication should be taken",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			text := strings.TrimSpace(args[1])
			return c.updateMedication(args[0], models.MedicationPatch{Instructions: &text})
		},
	}
}

func (c *cli) medAddCmd() *cobra.Command {
	var (
		m      models.Medication
		amount string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a medication",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := strconv.ParseFloat(amount, 64)
			if err != nil {
				return fmt.Errorf("invalid --amount %q", amount)
			}
			m.DosageAmount = v
			m.Frequency = strings.ToLower(m.Frequency)
			m.WeeklyDay = strings.ToLower(m.WeeklyDay)
			m.IsActive = true
			if err := models.ValidateMedication(&m); err != nil {
				return err
			}
			return c.withRecords(func(ctx context.Context, records store.RecordStore) error {
				added, err := records.AddMedication(ctx, c.cfg.User, m)
				if err != nil {
					return err
				}
				c.log.Info("Medication added", zap.String("medication_id", added.ID), zap.String("name", added.Name))
				fmt.Fprintln(cmd.OutOrStdout(), added.ID)
				return nil
			})
		},
	}

	today := time.Now().Format(models.DateLayout)
	f := cmd.Flags()
	f.StringVar(&m.Name, "name", "", "medication name")
	f.StringVar(&amount, "amount", "", "dosage amount, e.g. 100")
	f.StringVar(&m.DosageUnit, "unit", "mg", "dosage unit")
	f.StringVar(&m.Frequency, "frequency", "1", `doses per day (1-4), "weekly" or "as-needed"`)
	f.StringSliceVar(&m.Times, "times", nil, "dose times as HH:MM, comma separated")
	f.StringVar(&m.WeeklyDay, "weekday", "", "day of week for weekly medications")
	f.IntVar(&m.MaxDailyDoses, "max-daily", 0, "maximum doses per day for as-needed medications")
	f.IntVar(&m.MinInterval, "min-interval", 0, "hours between as-needed doses")
	f.StringVar(&m.StartDate, "start", today, "first day, YYYY-MM-DD")
	f.StringVar(&m.EndDate, "end", "", "last day, YYYY-MM-DD")
	f.StringVar(&m.Instructions, "instructions", "", "how to take it")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func (c *cli) medListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List medications with their next dose",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withRecords(func(ctx context.Context, records store.RecordStore) error {
				meds, err := records.Medications(ctx, c.cfg.User)
				if err != nil {
					return err
				}
				writeMedications(cmd.OutOrStdout(), meds, time.Now())
				return nil
			})
		},
	}
}

func writeMedications(out io.Writer, meds []models.Medication, now time.Time) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDOSAGE\tTIMES\tNEXT DOSE\tTAKEN\tMISSED\tACTIVE")
	for _, m := range meds {
		next := "-"
		if at, ok := schedule.NextDose(m, now); ok {
			next = at.Format(displayTimeLayout)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%t\n",
			m.ID, m.Name, m.DosageLabel(), strings.Join(m.Times, ","), next, m.TotalDoses, m.MissedDoses, m.IsActive)
	}
	tw.Flush()
}

func (c *cli) medRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a medication",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return c.withRecords(func(ctx context.Context, records store.RecordStore) error {
				if err := records.DeleteMedication(ctx, c.cfg.User, args[0]); err != nil {
					return fmt.Errorf("remove %s: %w", args[0], err)
				}
				c.log.Info("Medication removed", zap.String("medication_id", args[0]))
				return nil
			})
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent taken and missed doses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withRecords(func(ctx context.Context, records store.RecordStore) error {
				history, err := records.History(ctx, c.cfg.User)
				if err != nil {
					return err
				}
				writeHistory(cmd.OutOrStdout(), history, limit)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries, newest first; 0 for all")
	return cmd
}

func writeHistory(out io.Writer, history []models.HistoryEntry, limit int) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tMEDICATION\tACTION\tSCHEDULED\tDOSAGE")
	shown := 0
	for i := len(history) - 1; i >= 0; i-- {
		if limit > 0 && shown == limit {
			break
		}
		h := history[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			h.ActualTime.Local().Format(displayTimeLayout),
			h.MedicationName, h.Action,
			h.ScheduledTime.Local().Format(displayTimeLayout),
			h.Dosage)
		shown++
	}
	tw.Flush()
}

func (c *cli) appointmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "appointment",
		Aliases: []string{"appt"},
		Short:   "Manage doctor appointments",
	}

	var (
		a  models.Appointment
		at string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Add an appointment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := time.ParseInLocation(appointmentLayout, at, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --at %q, want %q", at, appointmentLayout)
			}
			a.At = t
			if err := models.ValidateAppointment(&a); err != nil {
				return err
			}
			return c.withRecords(func(ctx context.Context, records store.RecordStore) error {
				added, err := records.AddAppointment(ctx, c.cfg.User, a)
				if err != nil {
					return err
				}
				c.log.Info("Appointment added", zap.String("appointment_id", added.ID), zap.Time("at", added.At))
				fmt.Fprintln(cmd.OutOrStdout(), added.ID)
				return nil
			})
		},
	}
	f := add.Flags()
	f.StringVar(&a.DoctorName, "doctor", "", "doctor's name")
	f.StringVar(&a.Type, "type", "Checkup", "appointment type")
	f.StringVar(&at, "at", "", "local date and time, YYYY-MM-DD HH:MM")
	f.StringVar(&a.Location, "location", "", "where the appointment is")
	f.StringVar(&a.Notes, "notes", "", "free-form notes")
	_ = add.MarkFlagRequired("doctor")
	_ = add.MarkFlagRequired("at")

	list := &cobra.Command{
		Use:   "list",
		Short: "List appointments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withRecords(func(ctx context.Context, records store.RecordStore) error {
				appts, err := records.Appointments(ctx, c.cfg.User)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tWHEN\tDOCTOR\tTYPE\tLOCATION")
				for _, a := range appts {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						a.ID, a.At.Local().Format(displayTimeLayout), a.DoctorName, a.Type, a.Location)
				}
				return tw.Flush()
			})
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all records for the user as JSON or CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withRecords(func(ctx context.Context, records store.RecordStore) error {
				data, err := records.UserData(ctx, c.cfg.User)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return err
					}
					defer f.Close()
					out = f
				}
				if err := export.Write(out, format, data, time.Now()); err != nil {
					return err
				}
				c.log.Info("Records exported",
					zap.String("format", format),
					zap.Int("medications", len(data.Medications)),
					zap.Int("history", len(data.MedicationHistory)))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", export.FormatJSON, "json or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the user's records with a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			data, err := export.Read(f, time.Now())
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			if data.Username != c.cfg.User {
				c.log.Info("Importing records exported for another user", zap.String("exported_user", data.Username))
				data.Username = c.cfg.User
			}
			return c.withRecords(func(ctx context.Context, records store.RecordStore) error {
				if err := records.ReplaceUserData(ctx, data); err != nil {
					return err
				}
				c.log.Info("Records imported",
					zap.Int("medications", len(data.Medications)),
					zap.Int("appointments", len(data.Appointments)),
					zap.Int("history", len(data.MedicationHistory)))
				return nil
			})
		},
	}
}
