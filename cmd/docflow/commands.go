package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/garyjia/docflow/internal/application/dispatcher"
	"github.com/garyjia/docflow/internal/application/flow"
	"github.com/garyjia/docflow/internal/application/port"
	"github.com/garyjia/docflow/internal/domain/entity"
	"github.com/garyjia/docflow/internal/domain/event"
	"github.com/garyjia/docflow/internal/domain/workflow"
	"github.com/garyjia/docflow/internal/notification"
	"github.com/garyjia/docflow/internal/report"
	"github.com/garyjia/docflow/internal/session"
	apperrors "github.com/garyjia/docflow/pkg/errors"
	"github.com/garyjia/docflow/pkg/utils"
)

const dateLayout = "02/01/2006 15:04"

// errUsage marks a command line the user got wrong
var errUsage = errors.New("usage")

type identitySource interface {
	Identity(ctx context.Context) (*session.Identity, error)
}

type exportService interface {
	Generate(ctx context.Context) (*report.Export, error)
}

// app runs one CLI command against the workflow API
type app struct {
	api        port.WorkflowAPI
	unread     port.UnreadCounter
	identity   identitySource
	notifier   port.Notifier
	exports    exportService
	dispatcher dispatcher.Dispatcher
	logger     flow.Logger
	out        io.Writer
}

type command struct {
	usage string
	run   func(a *app, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"status":  {"status <document-id>", (*app).status},
	"start":   {"start [-title T] [-m comment] <document-id>", (*app).start},
	"pending": {"pending", (*app).pending},
	"decide":  {"decide [-m comment] <instance-id> <etape-id> approve|reject", (*app).decide},
	"details": {"details <instance-id>", (*app).details},
	"stats":   {"stats", (*app).stats},
	"export":  {"export [-o file.xlsx]", (*app).export},
	"unread":  {"unread", (*app).unreadCount},
	"whoami":  {"whoami", (*app).whoami},
}

var commandOrder = []string{"status", "start", "pending", "decide", "details", "stats", "export", "unread", "whoami"}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: docflow [-config file] [-token T] [-v] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

// dispatch runs the named command
func (a *app) dispatch(ctx context.Context, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
	return cmd.run(a, ctx, args)
}

func parseIDArg(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errUsage, what, s)
	}
	if err := utils.ValidateID(what, id); err != nil {
		return 0, fmt.Errorf("%w: %v", errUsage, err)
	}
	return id, nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func formatTime(ts entity.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format(dateLayout)
}

// printNotifications renders the toasts a command raised
func (a *app) printNotifications(c *notification.Collector) {
	for _, n := range c.Notifications() {
		fmt.Fprintf(a.out, "[%s] %s: %s\n", strings.ToUpper(string(n.Level)), n.Title, n.Message)
	}
}

func (a *app) publish(evt *event.Event) {
	if a.dispatcher != nil {
		a.dispatcher.DispatchAsync(context.Background(), evt)
	}
}

func (a *app) status(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: status takes one document id", errUsage)
	}
	documentID, err := parseIDArg(args[0], "document id")
	if err != nil {
		return err
	}

	st, err := a.api.GetDocumentWorkflowStatus(ctx, documentID)
	if err != nil {
		return err
	}

	if !st.HasWorkflow {
		fmt.Fprintf(a.out, "Document %d: aucun workflow\n", documentID)
		return nil
	}

	fmt.Fprintf(a.out, "Document %d: %s\n", documentID, st.Status.Presentation().Label)
	if st.InstanceID != nil {
		fmt.Fprintf(a.out, "Instance:      %d\n", *st.InstanceID)
	}
	if st.CurrentStepName != "" {
		fmt.Fprintf(a.out, "Étape courante: %s\n", st.CurrentStepName)
	}
	fmt.Fprintf(a.out, "Démarré le:    %s\n", formatTime(st.CreatedAt))
	if st.AllowsStart() {
		fmt.Fprintln(a.out, "Un nouveau workflow peut être démarré")
	}
	return nil
}

func (a *app) start(ctx context.Context, args []string) error {
	fs := newFlagSet("start")
	title := fs.String("title", "", "document title shown in notifications")
	comment := fs.String("m", "", "comment sent with the request")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: start takes one document id", errUsage)
	}
	documentID, err := parseIDArg(fs.Arg(0), "document id")
	if err != nil {
		return err
	}

	collector := notification.NewCollector(a.notifier)
	defer a.printNotifications(collector)

	f := flow.NewStartFlow(a.api, collector, a.logger, flow.StartFlowConfig{
		DocumentID:    documentID,
		DocumentTitle: *title,
		OnStarted: func(result *entity.StartResult) {
			a.publish(event.NewEvent(event.TypeWorkflowStarted, documentID, result.InstanceID, map[string]interface{}{
				"title":  *title,
				"status": string(result.Status),
			}))
		},
	})
	state := f.Mount(ctx)
	defer f.Unmount()

	if err := f.Open(); err != nil {
		if state == workflow.StateBlocked {
			return fmt.Errorf("document %d: un workflow est déjà en cours", documentID)
		}
		return fmt.Errorf("document %d: %s", documentID, f.View().ButtonLabel)
	}
	f.SetComment(utils.SanitizeComment(*comment))

	result, err := f.Submit(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Instance %d créée (%s)\n", result.InstanceID, result.Status.Presentation().Label)
	return nil
}

func (a *app) pending(ctx context.Context, args []string) error {
	collector := notification.NewCollector(a.notifier)
	defer a.printNotifications(collector)

	l := flow.NewPendingList(a.api, collector, a.logger, flow.PendingListConfig{})
	view := l.Mount(ctx)
	defer l.Unmount()

	if view.Failed {
		return errors.New(flow.MsgPendingLoadFailed)
	}
	if len(view.Rows) == 0 {
		fmt.Fprintln(a.out, view.EmptyMessage)
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INSTANCE\tÉTAPE\tDOCUMENT\tTYPE\tPRIORITÉ\tPROGRESSION\tÉCHÉANCE\tINITIATEUR")
	for _, r := range view.Rows {
		due := formatTime(r.DueDate)
		if r.Overdue {
			due += " (en retard)"
		}
		fmt.Fprintf(tw, "%d\t%d %s\t%s\t%s\t%s\t%d/%d (%.0f%%)\t%s\t%s\n",
			r.InstanceID,
			r.StepID, r.StepName,
			r.DocumentTitle,
			r.Type.Label,
			r.PriorityLabel,
			r.ApprovalsCount, r.ApprovalsRequired, r.Progress,
			due,
			r.InitiatorName,
		)
	}
	return tw.Flush()
}

func (a *app) decide(ctx context.Context, args []string) error {
	fs := newFlagSet("decide")
	comment := fs.String("m", "", "comment attached to the decision")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 3 {
		return fmt.Errorf("%w: decide takes an instance id, a step id and a decision", errUsage)
	}
	instanceID, err := parseIDArg(fs.Arg(0), "instance id")
	if err != nil {
		return err
	}
	stepID, err := parseIDArg(fs.Arg(1), "etape id")
	if err != nil {
		return err
	}

	collector := notification.NewCollector(a.notifier)
	defer a.printNotifications(collector)

	l := flow.NewPendingList(a.api, collector, a.logger, flow.PendingListConfig{
		OnApprovalProcessed: func(req entity.ApprovalRequest, result *entity.ApprovalResult) {
			a.publish(event.NewEvent(event.TypeApprovalProcessed, 0, req.InstanceID, map[string]interface{}{
				"etape_id": req.StepID,
				"decision": string(req.Decision),
				"status":   string(result.Status),
				"final":    result.Final,
			}))
		},
	})
	l.Mount(ctx)
	defer l.Unmount()

	l.OpenDecision(instanceID, stepID, entity.ParseDecision(fs.Arg(2)))
	l.SetDecisionComment(utils.SanitizeComment(*comment))

	result, err := l.SubmitDecision(ctx)
	if err != nil {
		if errors.Is(err, flow.ErrDecisionRequired) {
			return fmt.Errorf("%w: %s", errUsage, flow.MsgDecisionRequired)
		}
		return err
	}

	fmt.Fprintf(a.out, "Instance %d: %s\n", instanceID, result.Status.Presentation().Label)
	if result.NextStepID != nil {
		fmt.Fprintf(a.out, "Étape suivante: %d\n", *result.NextStepID)
	}
	return nil
}

func (a *app) details(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: details takes one instance id", errUsage)
	}
	instanceID, err := parseIDArg(args[0], "instance id")
	if err != nil {
		return err
	}

	d, err := a.api.GetWorkflowInstanceDetails(ctx, instanceID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return fmt.Errorf("instance %d: ce workflow n'existe plus", instanceID)
		}
		return err
	}

	inst := d.Instance
	fmt.Fprintf(a.out, "Instance %d (document %d): %s\n", inst.ID, inst.DocumentID, inst.Status.Presentation().Label)
	fmt.Fprintf(a.out, "Démarré le: %s\n", formatTime(inst.CreatedAt))
	if !inst.CompletedAt.IsZero() {
		fmt.Fprintf(a.out, "Terminé le: %s\n", formatTime(inst.CompletedAt))
	}
	if inst.Comment != "" {
		fmt.Fprintf(a.out, "Commentaire: %s\n", inst.Comment)
	}

	current := d.CurrentStep()
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nORDRE\tÉTAPE\tTYPE\tSTATUT")
	for _, st := range d.Steps {
		marker := ""
		if current != nil && current.ID == st.ID {
			marker = " *"
		}
		fmt.Fprintf(tw, "%d\t%s%s\t%s\t%s\n", st.Order, st.Name, marker, st.ApprovalType.Presentation().Label, st.Status.Presentation().Label)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(d.Approvals) > 0 {
		fmt.Fprintln(a.out, "\nApprobations:")
		for _, ap := range d.Approvals {
			line := fmt.Sprintf("  %s  étape %d  %s  %s", formatTime(ap.DecidedAt), ap.StepID, ap.ApproverName, ap.Decision.Presentation().Label)
			if ap.Comment != "" {
				line += "  « " + ap.Comment + " »"
			}
			fmt.Fprintln(a.out, line)
		}
	}
	return nil
}

func (a *app) stats(ctx context.Context, args []string) error {
	s, err := a.api.GetWorkflowStatistics(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total\t%d\n", s.TotalInstances)
	fmt.Fprintf(tw, "En cours\t%d\n", s.InProgress)
	fmt.Fprintf(tw, "Approuvés\t%d\n", s.Approved)
	fmt.Fprintf(tw, "Rejetés\t%d\n", s.Rejected)
	fmt.Fprintf(tw, "Annulés\t%d\n", s.Cancelled)
	fmt.Fprintf(tw, "En retard\t%d\n", s.Overdue)
	fmt.Fprintf(tw, "Approbations en attente\t%d\n", s.PendingApprovals)
	fmt.Fprintf(tw, "Délai moyen\t%.1f h\n", s.AverageDelayHours)
	return tw.Flush()
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := newFlagSet("export")
	output := fs.String("o", "", "output file (default: generated name in the working directory)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if a.exports == nil {
		return errors.New("export is not available")
	}

	exp, err := a.exports.Generate(ctx)
	if err != nil {
		return err
	}

	path := *output
	if path == "" {
		path = exp.FileName
	}
	if err := os.WriteFile(path, exp.Content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(a.out, "Statistiques exportées dans %s (%d octets)\n", path, len(exp.Content))
	return nil
}

func (a *app) unreadCount(ctx context.Context, args []string) error {
	if a.unread == nil {
		return errors.New("unread count is not available")
	}
	n, err := a.unread.GetUnreadNotificationCount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d notification(s) non lue(s)\n", n)
	return nil
}

func (a *app) whoami(ctx context.Context, args []string) error {
	id, err := a.identity.Identity(ctx)
	if err != nil {
		return err
	}

	name := id.Name
	if name == "" {
		name = id.Subject
	}
	fmt.Fprintf(a.out, "%s", name)
	if id.Email != "" {
		fmt.Fprintf(a.out, " <%s>", id.Email)
	}
	fmt.Fprintln(a.out)
	if !id.ExpiresAt.IsZero() {
		fmt.Fprintf(a.out, "Session valide jusqu'au %s (%s)\n",
			id.ExpiresAt.Local().Format(dateLayout),
			time.Until(id.ExpiresAt).Round(time.Minute))
	}
	return nil
}
