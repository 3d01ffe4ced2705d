package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/covalynce/covalynce-cli/internal/account"
	"github.com/covalynce/covalynce-cli/internal/cards"
	"github.com/covalynce/covalynce-cli/internal/integrations"
	"github.com/covalynce/covalynce-cli/internal/modal"
	"github.com/covalynce/covalynce-cli/internal/model"
	"github.com/covalynce/covalynce-cli/internal/notifications"
	"github.com/covalynce/covalynce-cli/internal/session"
	"github.com/covalynce/covalynce-cli/internal/toast"
	"github.com/covalynce/covalynce-cli/internal/trends"
)

// shell is the interactive command loop over the client stores.
type shell struct {
	sess     *session.Controller
	cards    *cards.Store
	integr   *integrations.Manager
	trends   *trends.Store
	notifs   *notifications.Store
	account  *account.Store
	toasts   *toast.Queue
	modals   *modal.Stack
	logger   *zap.Logger
	authAddr string

	scanner *bufio.Scanner
}

const helpText = `Session:    login <email> <password> | signup <email> <password> | demo [free|pro] | logout
Navigate:   view <login|dashboard|settings|sources|trends|help|notifications|privacy|history>
Cards:      cards | search <text> | select <id> | approve <id> | discard <id>
            bulk-approve | bulk-discard | history
Editing:    edit <id> | draft <text> | rephrase | image | save | close
Sources:    integrations | connect <provider> | disconnect <provider>
Trends:     location <place> | trending | competitors | add-competitor | posts <id>
            meme <template-id> <top> | <bottom> | usage | prefs | set-tone <tone>
Account:    profile | set-key <key> | set-email <email> | set-password <pw>
            export | delete-all | upgrade
Other:      notifications | read <id> | read-all | toasts | help | exit`

func (s *shell) run() {
	s.scanner = bufio.NewScanner(os.Stdin)
	s.printToastsOnChange()

	for {
		fmt.Printf("covalynce[%s]> ", strings.ToLower(string(s.sess.View())))
		if !s.scanner.Scan() {
			return
		}
		line := strings.TrimSpace(s.scanner.Text())
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			fmt.Println("Bye")
			return
		}
		s.dispatch(args, line)
	}
}

func (s *shell) dispatch(args []string, line string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	uid := s.sess.UserID()

	switch args[0] {
	case "help":
		fmt.Println(helpText)

	case "login":
		if len(args) < 3 {
			fmt.Println("Usage: login <email> <password>")
			return
		}
		if err := s.sess.SignIn(ctx, args[1], args[2]); err != nil {
			fmt.Println("Error:", s.sess.AuthError())
		}
	case "signup":
		if len(args) < 3 {
			fmt.Println("Usage: signup <email> <password>")
			return
		}
		strength := session.CheckPasswordStrength(args[2])
		if strength.Score < 5 {
			fmt.Println("Password needs:", strings.Join(strength.Feedback, ", "))
			return
		}
		if err := s.sess.SignUp(ctx, args[1], args[2]); err != nil {
			fmt.Println("Error:", s.sess.AuthError())
		}
	case "demo":
		tier := "free"
		if len(args) > 1 {
			tier = args[1]
		}
		s.sess.DemoLogin(tier)
	case "logout":
		s.sess.Logout()
		fmt.Println("Signed out")

	case "view":
		if len(args) < 2 {
			fmt.Println("Current view:", s.sess.View())
			return
		}
		s.sess.SetView(model.View(strings.ToUpper(args[1])))

	case "cards":
		s.printCards()
	case "search":
		s.cards.SetSearch(strings.TrimSpace(strings.TrimPrefix(line, "search")))
		s.printCards()
	case "select":
		if len(args) < 2 {
			fmt.Println("Usage: select <id>")
			return
		}
		s.cards.Toggle(args[1])
		fmt.Printf("%d card(s) selected\n", s.cards.SelectionCount())
	case "approve", "discard":
		if len(args) < 2 {
			fmt.Printf("Usage: %s <id>\n", args[0])
			return
		}
		action := model.ActionExecute
		if args[0] == "discard" {
			action = model.ActionDismiss
		}
		card, _ := s.cards.Get(args[1])
		r := s.cards.Apply(ctx, uid, args[1], action, card.Platform)
		if r.State == cards.StateRolledBack {
			fmt.Println("Action failed, card restored")
		}
	case "bulk-approve":
		s.cards.BulkAction(ctx, uid, true)
	case "bulk-discard":
		s.cards.BulkAction(ctx, uid, false)
	case "history":
		if err := s.cards.LoadHistory(ctx, uid); err != nil {
			return
		}
		for _, c := range s.cards.History() {
			fmt.Printf("  [%s] %-8s %s\n", c.Status, c.Category, c.Title)
		}

	case "edit":
		if len(args) < 2 {
			fmt.Println("Usage: edit <id>")
			return
		}
		if !s.cards.OpenEditor(args[1]) {
			fmt.Println("Card not found")
			return
		}
		content, _, _ := s.cards.Draft()
		fmt.Println("Draft:", content)
	case "draft":
		s.cards.SetDraft(strings.TrimSpace(strings.TrimPrefix(line, "draft")))
	case "rephrase":
		if err := s.cards.RephraseDraft(ctx, uid); err == nil {
			content, _, _ := s.cards.Draft()
			fmt.Println("Draft:", content)
		}
	case "image":
		if err := s.cards.GenerateDraftImage(ctx, uid); err == nil {
			_, imageURL, _ := s.cards.Draft()
			fmt.Println("Image:", imageURL)
		}
	case "save":
		s.cards.SaveDraft()
	case "close":
		s.cards.CloseEditor()

	case "integrations":
		for _, in := range s.integr.Connected() {
			fmt.Println("  connected:", in.Provider)
		}
	case "connect":
		if len(args) < 2 {
			fmt.Println("Usage: connect <github|linkedin|slack|google|facebook>")
			return
		}
		s.connectProvider(ctx, args[1])
	case "disconnect":
		if len(args) < 2 {
			fmt.Println("Usage: disconnect <provider>")
			return
		}
		_ = s.integr.Disable(ctx, uid, args[1])

	case "location":
		s.trends.SetLocation(strings.TrimSpace(strings.TrimPrefix(line, "location")))
	case "trending":
		if err := s.trends.LoadTrending(ctx, uid); err != nil {
			if err == trends.ErrNoLocation {
				fmt.Println("Set a location first: location <place>")
			}
			return
		}
		for _, tr := range s.trends.Trending() {
			fmt.Printf("  %3d  %s\n", tr.TrendingScore, tr.Content)
		}
		for _, m := range s.trends.Memes() {
			fmt.Printf("  meme %s: %s\n", m.ID, m.Name)
		}
	case "competitors":
		for _, c := range s.trends.Competitors() {
			fmt.Printf("  %s  %s (%s on %s)\n", c.ID, c.Name, c.Handle, c.Platform)
		}
	case "add-competitor":
		s.addCompetitor(ctx, uid)
	case "posts":
		if len(args) < 2 {
			fmt.Println("Usage: posts <competitor-id>")
			return
		}
		if err := s.trends.SelectCompetitor(ctx, uid, args[1]); err != nil {
			return
		}
		_, posts := s.trends.Posts()
		for _, p := range posts {
			fmt.Printf("  %4d likes  %s\n", p.Engagement.Likes, p.Content)
		}
	case "meme":
		rest := strings.TrimSpace(strings.TrimPrefix(line, "meme"))
		parts := strings.SplitN(rest, " ", 2)
		if len(parts) < 2 || !strings.Contains(parts[1], "|") {
			fmt.Println("Usage: meme <template-id> <top> | <bottom>")
			return
		}
		captions := strings.SplitN(parts[1], "|", 2)
		url, err := s.trends.ComposeMeme(ctx, uid, parts[0],
			strings.TrimSpace(captions[0]), strings.TrimSpace(captions[1]))
		if err == nil {
			fmt.Println("Meme:", url)
		}
	case "usage":
		u := s.trends.Usage()
		fmt.Printf("  daily %d/%d  monthly %d/%d\n",
			u.Daily.Used, u.Daily.Limit, u.Monthly.Used, u.Monthly.Limit)
	case "prefs":
		p := s.trends.Preferences()
		fmt.Printf("  tone=%s style=%s length=%s hashtags=%v emojis=%v\n",
			p.Tone, p.Style, p.Length, p.IncludeHashtags, p.IncludeEmojis)
	case "set-tone":
		if len(args) < 2 {
			fmt.Println("Usage: set-tone <tone>")
			return
		}
		p := s.trends.Preferences()
		p.Tone = args[1]
		_ = s.trends.SavePreferences(ctx, uid, p)

	case "notifications":
		for _, n := range s.notifs.All() {
			marker := " "
			if !n.Read {
				marker = "*"
			}
			fmt.Printf("  %s %s  %s\n", marker, n.ID, n.Title)
		}
		fmt.Printf("  %d unread\n", s.notifs.Unread())
	case "read":
		if len(args) < 2 {
			fmt.Println("Usage: read <id>")
			return
		}
		_ = s.notifs.MarkRead(ctx, uid, args[1])
	case "read-all":
		_ = s.notifs.MarkAllRead(ctx, uid)

	case "profile":
		p, ok := s.account.Profile()
		if !ok {
			fmt.Println("Profile not loaded yet")
			return
		}
		fmt.Printf("  plan=%s cards=%d/%d byok=%v\n",
			p.Plan, p.CardsUsed, p.CardLimit, p.OpenAIKey != "")
	case "set-key":
		if len(args) < 2 {
			s.promptForKey(ctx, uid)
			return
		}
		_ = s.account.SaveOpenAIKey(ctx, uid, args[1])
	case "set-email":
		if len(args) < 2 {
			fmt.Println("Usage: set-email <email>")
			return
		}
		_ = s.account.ChangeEmail(ctx, uid, args[1])
	case "set-password":
		if len(args) < 2 {
			fmt.Println("Usage: set-password <password>")
			return
		}
		_ = s.account.ChangePassword(ctx, uid, args[1])
	case "export":
		if path, err := s.account.ExportData(ctx, uid); err == nil {
			fmt.Println("Export written to", path)
		}
	case "delete-all":
		s.deleteAllData(ctx, uid)
	case "upgrade":
		s.upgrade(ctx, uid)

	case "toasts":
		for _, t := range s.toasts.Active() {
			fmt.Printf("  [%s] %s\n", t.Severity, t.Message)
		}

	default:
		fmt.Println("Unknown command. Type 'help' for a list of commands.")
	}
}

func (s *shell) printCards() {
	cols := s.cards.ByCategory()
	for _, cat := range []model.Category{model.CategoryMarketing, model.CategoryEngineering, model.CategoryStrategy} {
		fmt.Printf("%s (%d)\n", cat, len(cols[cat]))
		for _, c := range cols[cat] {
			marker := " "
			if s.cards.Selected(c.ID) {
				marker = "*"
			}
			fmt.Printf("  %s %-12s %s\n", marker, c.ID, c.Title)
		}
	}
}

// connectProvider runs the consent dialog inline: permissions are
// listed, the user must tick the box explicitly, and only then is the
// authorization URL produced.
func (s *shell) connectProvider(ctx context.Context, provider string) {
	if err := s.integr.Connect(ctx, provider); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Printf("%s requests the following permissions:\n", provider)
	for _, p := range s.integr.Permissions() {
		fmt.Println("  -", p)
	}
	s.modals.Open(modal.Config{
		Kind:    modal.Consent,
		Title:   "Connect " + provider,
		Message: "I understand and agree to grant these permissions",
	})
	fmt.Print("Agree? [y/N] ")
	answer := s.readLine()
	s.modals.Cancel(modal.Consent)

	s.integr.SetConsentChecked(strings.EqualFold(answer, "y"))
	url, err := s.integr.Proceed()
	if err != nil {
		s.integr.Cancel()
		return
	}
	fmt.Println("Open this URL in your browser to continue:")
	fmt.Println(" ", url)
	fmt.Println("Waiting for the callback on", s.authAddr)
}

func (s *shell) promptForKey(ctx context.Context, uid string) {
	s.modals.Open(modal.Config{
		Kind:        modal.Prompt,
		Title:       "Bring your own key",
		Placeholder: "sk-...",
		OnConfirm: func(values map[string]string) {
			_ = s.account.SaveOpenAIKey(ctx, uid, values["value"])
		},
	})
	fmt.Print("OpenAI key (empty to cancel): ")
	key := s.readLine()
	if key == "" {
		s.modals.Cancel(modal.Prompt)
		return
	}
	s.modals.ConfirmDialog(modal.Prompt, map[string]string{"value": key})
}

func (s *shell) addCompetitor(ctx context.Context, uid string) {
	values := map[string]string{}
	s.modals.Open(modal.Config{
		Kind:  modal.MultiPrompt,
		Title: "Track a competitor",
		Fields: []modal.Field{
			{Key: "name", Label: "Name"},
			{Key: "platform", Label: "Platform"},
			{Key: "handle", Label: "Handle"},
		},
		OnConfirm: func(v map[string]string) { values = v },
	})
	answers := map[string]string{}
	for _, f := range []string{"name", "platform", "handle"} {
		fmt.Printf("%s: ", f)
		answers[f] = s.readLine()
	}
	s.modals.ConfirmDialog(modal.MultiPrompt, answers)
	if values["name"] == "" {
		fmt.Println("Name is required")
		return
	}
	_ = s.trends.AddCompetitor(ctx, uid, values["name"], values["platform"], values["handle"])
}

// deleteAllData is gated behind an explicit confirmation; there is no
// undo on the other side.
func (s *shell) deleteAllData(ctx context.Context, uid string) {
	confirmed := false
	s.modals.Open(modal.Config{
		Kind:      modal.Confirm,
		Title:     "Delete all data",
		Message:   "This permanently erases your account data. Continue?",
		OnConfirm: func(map[string]string) { confirmed = true },
	})
	fmt.Print("Type 'delete' to confirm: ")
	if s.readLine() == "delete" {
		s.modals.ConfirmDialog(modal.Confirm, nil)
	} else {
		s.modals.Cancel(modal.Confirm)
	}
	if !confirmed {
		fmt.Println("Cancelled")
		return
	}
	_ = s.account.DeleteAllData(ctx, uid)
}

func (s *shell) upgrade(ctx context.Context, uid string) {
	order, err := s.account.StartUpgrade(ctx, uid)
	if err != nil {
		return
	}
	fmt.Printf("Order %s created: %d %s\n", order.ID, order.Amount, order.Currency)
	fmt.Print("Payment id: ")
	paymentID := s.readLine()
	fmt.Print("Signature: ")
	signature := s.readLine()
	if paymentID == "" || signature == "" {
		fmt.Println("Cancelled")
		return
	}
	_ = s.account.CompleteUpgrade(ctx, uid, order.ID, paymentID, signature)
}

func (s *shell) readLine() string {
	if !s.scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(s.scanner.Text())
}

// printToastsOnChange echoes newly queued toasts to the terminal.
func (s *shell) printToastsOnChange() {
	seen := map[string]bool{}
	s.toasts.OnChange(func(active []toast.Toast) {
		for _, t := range active {
			if !seen[t.ID] {
				seen[t.ID] = true
				fmt.Printf("\n[%s] %s\n", t.Severity, t.Message)
			}
		}
	})
}
