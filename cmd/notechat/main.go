package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/rs/xid"
	"go.uber.org/zap"

	"notechat/internal/backend"
	"notechat/internal/backend/postgres"
	"notechat/internal/backend/postgres/zapadapter"
	"notechat/internal/backend/realtime"
	"notechat/internal/chat"
	"notechat/internal/notes"
)

type credentials struct {
	Email    string `env:"NOTECHAT_EMAIL,required"`
	Password string `env:"NOTECHAT_PASSWORD,required"`
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("zap.NewDevelopment: %v", err)
	}
	defer logger.Sync()

	sugar := logger.Sugar()
	sugar.Info("Application is starting")

	storeCfg := postgres.Config{}
	if err := env.Parse(&storeCfg); err != nil {
		sugar.Fatalf("Cannot parse store config: %v", err)
	}

	feedCfg := realtime.Config{}
	if err := env.Parse(&feedCfg); err != nil {
		sugar.Fatalf("Cannot parse feed config: %v", err)
	}

	creds := credentials{}
	if err := env.Parse(&creds); err != nil {
		sugar.Fatalf("Cannot parse credentials: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := postgres.NewStore(ctx, sugar, storeCfg, postgres.ConnectionTimeout(30*time.Second))
	if err != nil {
		sugar.Fatalf("Cannot create Store instance: %v", err)
	}
	defer store.Close()

	self, err := store.SignIn(ctx, creds.Email, creds.Password)
	if errors.Is(err, backend.ErrInvalidCredentials) {
		username := strings.SplitN(creds.Email, "@", 2)[0]
		self, err = store.SignUp(ctx, creds.Email, username, creds.Password)
	}
	if err != nil {
		sugar.Fatalf("Cannot sign in: %v", err)
	}
	defer store.SignOut(context.Background(), self)

	sugar.Infof("Signed in as %s (id: %d)", self.Email, self.UserID)

	// Tag every pgx log line issued on behalf of this session.
	ctx = zapadapter.NewContextWithSessionID(ctx, xid.New().String())

	roster := chat.NewRoster(sugar, store, store, self)
	if err := roster.Load(ctx); err != nil {
		sugar.Errorf("Cannot load groups: %v", err)
	}

	feed := realtime.NewFeed(sugar, feedCfg, self)
	session := chat.NewSession(sugar, self, chat.Services{
		Querier: store,
		Mutator: store,
		Objects: store,
		Feed:    feed,
	}, roster)
	noteSvc := notes.NewService(sugar, store, store, self)

	go func() {
		if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			sugar.Errorf("Change feed stopped: %v", err)
		}
	}()

	go func() {
		for n := range session.Notifications() {
			if n.Source == "" {
				fmt.Printf("! %s\n", n.Preview)
				continue
			}
			fmt.Printf("! %s: %s\n", n.Source, n.Preview)
		}
	}()

	repl(ctx, sugar, store, session, roster, noteSvc)

	sugar.Info("Shutting down")
}

// repl reads commands and message text from stdin until EOF or interrupt.
func repl(ctx context.Context, logger *zap.SugaredLogger, querier backend.Querier, session *chat.Session, roster *chat.Roster, noteSvc *notes.Service) {
	fmt.Println("commands: /peer <id>, /group <id>, /close, /users, /groups, /notes, anything else sends")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			handle(ctx, logger, querier, session, roster, noteSvc, line)
		}
	}
}

func handle(ctx context.Context, logger *zap.SugaredLogger, querier backend.Querier, session *chat.Session, roster *chat.Roster, noteSvc *notes.Service, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "/peer", "/group":
		if len(fields) != 2 {
			fmt.Printf("usage: %s <id>\n", fields[0])
			return
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			fmt.Printf("bad id %q\n", fields[1])
			return
		}
		target := chat.PeerTarget(id)
		if fields[0] == "/group" {
			target = chat.GroupTarget(id)
		}
		if err := session.Select(ctx, target); err != nil {
			fmt.Println("! Failed to load messages")
			return
		}
		for _, m := range session.Messages() {
			fmt.Printf("%s [%d] %s\n", m.CreatedAt.Format(time.Kitchen), m.Sender, m.Text)
		}
	case "/close":
		if err := session.Select(ctx, chat.NoTarget()); err != nil {
			logger.Errorf("closing conversation: %v", err)
		}
	case "/users":
		profiles, err := querier.Profiles(ctx)
		if err != nil {
			fmt.Println("! Failed to load users")
			return
		}
		for _, p := range profiles {
			fmt.Printf("%d %s\n", p.ID, p.DisplayName())
		}
	case "/groups":
		for _, g := range roster.Groups() {
			fmt.Printf("%d %s (%d members)\n", g.ID, g.Name, len(g.Members))
		}
	case "/notes":
		list, err := noteSvc.List(ctx)
		if err != nil {
			fmt.Println("! Failed to load notes")
			return
		}
		for _, n := range list {
			fmt.Printf("%d %s\n", n.ID, n.Title)
		}
	default:
		if err := session.Send(ctx, chat.SendRequest{Text: line}); err != nil {
			fmt.Printf("! %v\n", err)
		}
	}
}
