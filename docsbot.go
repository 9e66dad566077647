package docsbot

import (
	"context"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/docsbot-dev/docsbot/actions"
	"github.com/docsbot-dev/docsbot/apiclient"
	"github.com/docsbot-dev/docsbot/config"
	"github.com/docsbot-dev/docsbot/formatter"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const (
	defaultBotName = "docsbot"
)

// API is implemented by any value that has the methods of the question-answering api used by docsbot.
//
// apiclient.Client implements this interface
type API interface {
	GetChatHistory(ctx context.Context, application string, threadID string) (history []apiclient.QuestionAnswer, err error)

	Query(ctx context.Context, req apiclient.QueryRequest) (resp *apiclient.QueryResponse, err error)

	CreateQuestionAnswer(ctx context.Context, qa apiclient.QuestionAnswerCreate) (err error)

	GenerateAds(ctx context.Context, req apiclient.AdCopyRequest) (resp *apiclient.AdCopyResponse, err error)

	CreateFeedback(ctx context.Context, fb apiclient.FeedbackCreate) (err error)
}

// acker is implemented by any value that has the Ack method.
//
// socketmode.Client implements this interface
type acker interface {
	Ack(req socketmode.Request, payload ...interface{})
}

// Bot is the docsbot application context. It is created once and shared by all handlers
type Bot struct {
	name       string
	config     *viper.Viper
	profile    *config.Profile
	formatting formatter.Config
	api        API

	slackClient    *slack.Client
	chatDriver     chatDriver
	emojiReactor   EmojiReactor
	selfIdentifier selfIdentifier

	eventHandlers  map[string]eventHandler
	actionHandlers map[string]actionHandler
	router         *partitionRouter

	selfID   string
	selfName string

	zapLogger *zap.Logger
	log       *sLogger
	meter     metric.Meter
	*instrumenter

	closers []io.Closer
}

// interaction is an event or block action to process along with what identifies it
type interaction struct {
	id           string
	kind         string
	name         string
	conversation conversationID
	event        *slackevents.EventsAPIInnerEvent
	callback     *slack.InteractionCallback
}

// Option defines an option for a Bot
type Option func(b *Bot)

// OptionLog sets the zap logger the bot logs with
func OptionLog(logger *zap.Logger) func(b *Bot) {
	return func(b *Bot) {
		b.zapLogger = logger
	}
}

// OptionMeter sets the meter the bot creates its metric instruments with
func OptionMeter(meter metric.Meter) func(b *Bot) {
	return func(b *Bot) {
		b.meter = meter
	}
}

// OptionName sets the name of the bot as reported in metrics
func OptionName(name string) func(b *Bot) {
	return func(b *Bot) {
		b.name = name
	}
}

// New creates a new docsbot answering questions with api. The language profile is resolved
// from the configured language
func New(v *viper.Viper, api API, options ...Option) (b *Bot, err error) {
	if api == nil {
		return nil, errors.New("an api is required to create docsbot")
	}

	profile, err := config.GetLanguageProfile(v, v.GetString(config.LanguageKey))
	if err != nil {
		return nil, err
	}

	b = new(Bot)
	b.name = defaultBotName
	b.config = v
	b.profile = profile
	b.formatting = formatter.NewConfig(profile)
	b.api = api
	b.closers = make([]io.Closer, 0)

	for _, opt := range options {
		opt(b)
	}

	if b.zapLogger == nil {
		if b.zapLogger, err = NewZapLogger(v.GetString(config.LogLevelKey)); err != nil {
			return nil, errors.Wrap(err, "failed to create logger")
		}
	}
	b.log = NewSLogger(b.zapLogger.With(zap.String("language", profile.Language)))

	if b.meter == nil {
		b.meter = otel.GetMeterProvider().Meter(b.name)
	}

	if b.instrumenter, err = newInstrumenter(b.name, b.meter); err != nil {
		return nil, errors.Wrap(err, "failed to create metric instruments")
	}

	b.slackClient = slack.New(profile.BotToken,
		slack.OptionAppLevelToken(profile.AppToken),
		slack.OptionDebug(v.GetBool(config.DebugKey)),
		slack.OptionLog(zap.NewStdLog(b.zapLogger.Named("slack"))))

	if b.chatDriver == nil {
		if b.chatDriver, err = newChatDriverWithTelemetry(b.slackClient, b.name, b.meter); err != nil {
			return nil, errors.Wrap(err, "failed to create metric instruments")
		}
	}

	if b.emojiReactor == nil {
		if b.emojiReactor, err = NewEmojiReactorWithTelemetry(b.slackClient, b.name, b.meter); err != nil {
			return nil, errors.Wrap(err, "failed to create metric instruments")
		}
	}

	if b.api, err = newAPIWithTelemetry(b.api, b.name, b.meter); err != nil {
		return nil, errors.Wrap(err, "failed to create metric instruments")
	}

	if b.selfIdentifier == nil {
		b.selfIdentifier = b.slackClient
	}

	b.registerHandlers()

	return b, nil
}

// Run connects to slack in socket mode and processes events until the context is done or
// the process receives a SIGINT or SIGTERM. Interactions being processed when terminating are
// completed before Run returns
func (b *Bot) Run(ctx context.Context) (err error) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err = b.cacheSelfIdentity(ctx); err != nil {
		return err
	}

	if err = b.startRouter(); err != nil {
		return err
	}
	defer b.router.stop()

	client := socketmode.New(b.slackClient,
		socketmode.OptionDebug(b.config.GetBool(config.DebugKey)),
		socketmode.OptionLog(zap.NewStdLog(b.zapLogger.Named("socketmode"))))

	errCh := make(chan error, 1)
	go func() {
		errCh <- client.RunContext(ctx)
	}()

	b.log.Printf("Starting [%s] as [%s] for application [%s]", b.name, b.selfName, b.profile.Application)

	for {
		select {
		case <-ctx.Done():
			b.log.Printf("Received termination, finishing interactions in progress")
			return nil

		case err = <-errCh:
			if err != nil && ctx.Err() == nil {
				return errors.Wrap(err, "socket mode connection failed")
			}
			return nil

		case evt := <-client.Events:
			b.handleSocketEvent(evt, client)
		}
	}
}

// startRouter creates the partition router and starts its workers
func (b *Bot) startRouter() (err error) {
	b.router, err = newPartitionRouter(b.config.GetInt(config.MessageProcessingPartitionCount), b.config.GetInt(config.MessageProcessingBufferedMessageCount), b.log, b.instrumenter)
	if err != nil {
		return err
	}

	// Handlers don't use the run context so that interactions in progress complete on termination
	processingCtx := context.Background()
	b.router.start(func(in *interaction) {
		b.process(processingCtx, in)
	})

	return nil
}

// handleSocketEvent acknowledges socket mode requests and dispatches events api events and block actions
func (b *Bot) handleSocketEvent(evt socketmode.Event, ack acker) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		b.log.Printf("Connecting to slack with socket mode")

	case socketmode.EventTypeConnected:
		b.log.Printf("Connected to slack with socket mode")

	case socketmode.EventTypeConnectionError:
		b.log.Errorf("Connection to slack failed: %v", evt.Data)

	case socketmode.EventTypeEventsAPI:
		e, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			b.log.Debugf("Ignoring events api event of unexpected type [%T]", evt.Data)
			return
		}

		ack.Ack(*evt.Request)
		b.dispatchEventsAPIEvent(e)

	case socketmode.EventTypeInteractive:
		cb, ok := evt.Data.(slack.InteractionCallback)
		if !ok {
			b.log.Debugf("Ignoring interactive event of unexpected type [%T]", evt.Data)
			return
		}

		ack.Ack(*evt.Request)
		b.dispatchInteractionCallback(cb)

	default:
		// Acknowledge anything else so slack doesn't retry it
		if evt.Request != nil {
			ack.Ack(*evt.Request)
		}
	}
}

// dispatchEventsAPIEvent routes callback events that have a registered handler
func (b *Bot) dispatchEventsAPIEvent(e slackevents.EventsAPIEvent) {
	if e.Type != slackevents.CallbackEvent {
		return
	}

	inner := e.InnerEvent
	if _, ok := b.eventHandlers[inner.Type]; !ok {
		b.log.Debugf("Ignoring event [%s] without handler", inner.Type)
		return
	}

	var conversation conversationID
	switch ev := inner.Data.(type) {
	case *slackevents.AppMentionEvent:
		conversation = conversationID{channelID: ev.Channel, timestamp: ev.ThreadTimeStamp}
		if conversation.timestamp == "" {
			conversation.timestamp = ev.TimeStamp
		}

	case *slackevents.ReactionAddedEvent:
		conversation = conversationID{channelID: ev.Item.Channel, timestamp: ev.Item.Timestamp}
	}

	b.dispatch(&interaction{kind: eventKind, name: inner.Type, conversation: conversation, event: &inner})
}

// dispatchInteractionCallback routes each block action that has a registered handler
func (b *Bot) dispatchInteractionCallback(cb slack.InteractionCallback) {
	if cb.Type != slack.InteractionTypeBlockActions {
		b.log.Debugf("Ignoring interaction of type [%s]", cb.Type)
		return
	}

	conversation := conversationID{channelID: cb.Channel.ID, timestamp: actions.ThreadID(cb.Message.Msg)}

	for _, a := range cb.ActionCallback.BlockActions {
		if _, ok := b.actionHandlers[a.ActionID]; !ok {
			b.log.Debugf("Ignoring action [%s] without handler", a.ActionID)
			continue
		}

		b.dispatch(&interaction{kind: actionKind, name: a.ActionID, conversation: conversation, callback: &cb})
	}
}

// dispatch assigns an id to an interaction and routes it to its partition
func (b *Bot) dispatch(in *interaction) {
	in.id = uuid.NewString()
	b.coreMetrics.interactionsSeen.Add(context.Background(), 1, b.coreMetrics.defaultAttributes)

	b.router.route(in)
}

// process runs the handler of an interaction. Errors are logged and end the interaction
func (b *Bot) process(ctx context.Context, in *interaction) (err error) {
	log := b.log.With("interactionID", in.id, "kind", in.kind, "handler", in.name, "channel", in.conversation.channelID, "thread", in.conversation.timestamp)

	if in.event != nil {
		log.Debugf("Processing event: %+v", in.event.Data)
	} else if in.callback != nil {
		log.Debugf("Processing block actions from [%s] on message [%s]", in.callback.User.ID, in.callback.Message.Timestamp)
	}

	start := time.Now()
	defer func() {
		b.recordProcessed(ctx, in.kind, in.name, time.Since(start))
	}()

	if err = b.runHandler(ctx, log, in); err != nil {
		var se *StepError
		if errors.As(err, &se) {
			b.recordStepFailure(ctx, se.Step)
		}

		log.Errorf("Error processing [%s] %s: %v", in.name, in.kind, err)
	}

	return err
}

// runHandler runs the handler of an interaction. A panicking handler ends its interaction with
// an error rather than the partition worker
func (b *Bot) runHandler(ctx context.Context, log SLogger, in *interaction) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("handler panicked: %v", r)
		}
	}()

	switch in.kind {
	case eventKind:
		return b.eventHandlers[in.name](ctx, log, *in.event)
	case actionKind:
		return b.actionHandlers[in.name](ctx, log, in.callback)
	default:
		return errors.Errorf("unknown interaction kind [%s]", in.kind)
	}
}

// Close closes all closers registered with the bot
func (b *Bot) Close() (err error) {
	for _, c := range b.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	if b.zapLogger != nil {
		// Syncing stdout fails on some platforms so the error is ignored
		_ = b.zapLogger.Sync()
	}

	return err
}
