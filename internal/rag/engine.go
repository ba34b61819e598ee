package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"webtoon-rag/internal/contextutil"
	"webtoon-rag/internal/narrative"
	"webtoon-rag/internal/vectorstore"
)

// NoResultsAnswer is returned when hybrid search finds nothing.
const NoResultsAnswer = "검색 결과가 없습니다."

// Engine answers questions about the story.
type Engine interface {
	// Ask routes the question, gathers evidence and generates an answer.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
}

// Options are the retrieval policy values.
type Options struct {
	Collection   string
	RRFConstant  int
	TopKRetrieve int
	TopKFinal    int
	WindowSize   int
	// PlainText renders markdown in answers as plain text.
	PlainText bool
}

// Dependencies are the collaborators of the engine. Lexical and Trace may be nil.
type Dependencies struct {
	LLM          LLM
	Embedder     Embedder
	CrossEncoder CrossEncoder
	VectorStore  vectorstore.VectorStore
	Lexical      LexicalSearcher
	Lookup       *narrative.LookupStore
	Events       narrative.ChapterEvents
	Roster       []narrative.Character
	Trace        TraceSink
}

type state string

const (
	stateRouting   state = "ROUTING"
	stateLookup    state = "LOOKUP"
	stateSearch    state = "SEARCH"
	stateAssembled state = "ASSEMBLED"
	stateDone      state = "DONE"
)

// ragEngine implements the Engine interface.
type ragEngine struct {
	llm      LLM
	router   *Router
	expander *QueryExpander
	hybrid   *HybridSearcher
	window   *WindowExpander
	reranker *Reranker
	lookup   *narrative.LookupStore
	events   narrative.ChapterEvents
	trace    TraceSink
	opts     Options
}

// NewEngine wires the pipeline stages.
func NewEngine(deps Dependencies, opts Options) Engine {
	lookup := deps.Lookup
	if lookup == nil {
		lookup = narrative.NewLookupStore(nil)
	}
	events := deps.Events
	if events == nil {
		events = narrative.ChapterEvents{}
	}
	return &ragEngine{
		llm:      deps.LLM,
		router:   NewRouter(deps.LLM),
		expander: NewQueryExpander(deps.LLM, deps.Roster),
		hybrid:   NewHybridSearcher(deps.Embedder, deps.VectorStore, opts.Collection, deps.Lexical, opts.RRFConstant),
		window:   NewWindowExpander(deps.VectorStore, opts.Collection),
		reranker: NewReranker(deps.CrossEncoder),
		lookup:   lookup,
		events:   events,
		trace:    deps.Trace,
		opts:     opts,
	}
}

// assembled is the prompt pair waiting for generation.
type assembled struct {
	system string
	user   string
}

// run carries per-request state between stages.
type run struct {
	req       AskRequest
	decision  RouterDecision
	rewritten string
	fused     []Candidate
	ranked    []ScoredDocument
	latency   map[string]int64
}

func (r *run) timed(stage string, start time.Time) {
	r.latency[stage] = time.Since(start).Milliseconds()
}

// Ask answers a question.
func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return AskResponse{}, &ValidationError{Field: "question", Message: "must not be empty"}
	}
	if req.WindowSize != nil && *req.WindowSize < 0 {
		return AskResponse{}, &ValidationError{Field: "window_size", Message: "must not be negative"}
	}

	r := &run{req: req, latency: map[string]int64{}}
	logger.InfoContext(ctx, "question received", "state", stateRouting, "question_length", len(req.Question))

	start := time.Now()
	decision, err := e.router.Route(ctx, req.Question)
	if err != nil {
		return AskResponse{}, err
	}
	r.decision = decision
	r.timed("route", start)

	var prompt assembled
	if decision.IsLookup() {
		logger.DebugContext(ctx, "state transition", "state", stateLookup, "chapter_id", decision.ChapterID)
		prompt = e.assembleLookup(req.Question, decision.ChapterID)
	} else {
		logger.DebugContext(ctx, "state transition", "state", stateSearch)
		var done bool
		prompt, done, err = e.assembleSearch(ctx, r)
		if err != nil {
			return AskResponse{}, err
		}
		if done {
			logger.InfoContext(ctx, "no retrieval results", "state", stateDone)
			return e.finish(ctx, r, NoResultsAnswer), nil
		}
	}

	logger.DebugContext(ctx, "state transition", "state", stateAssembled,
		"system_prompt_length", len(prompt.system),
		"user_prompt_length", len(prompt.user),
	)

	start = time.Now()
	answer, err := e.llm.Ask(ctx, prompt.system, prompt.user)
	if err != nil {
		logger.ErrorContext(ctx, "generation failed", "error", err)
		return AskResponse{}, externalError("generate", err)
	}
	r.timed("generate", start)

	if e.opts.PlainText {
		answer = PlainText(answer)
	}

	logger.InfoContext(ctx, "answer generated", "state", stateDone, "answer_length", len(answer))
	return e.finish(ctx, r, answer), nil
}

// assembleLookup builds the chapter summary prompt from precomputed summaries only.
func (e *ragEngine) assembleLookup(question string, chapterID int) assembled {
	chapterSummary := e.lookup.Get(narrative.ChapterKey(chapterID), narrative.MissingSummary)
	eventID := e.events[chapterID]
	eventSummary := e.lookup.Event(eventID)

	var b strings.Builder
	if eventSummary != "" {
		fmt.Fprintf(&b, "[Related Event Summary (Event %s)]\n%s\n\n", eventID, eventSummary)
	}
	fmt.Fprintf(&b, "[Target Chapter Summary (Chapter %d)]\n%s", chapterID, chapterSummary)

	return assembled{
		system: ChapterSystemPrompt,
		user: render(ChapterPrompt, promptFields{
			CharacterInfo:    e.expander.ProfileLookup(question + "\n" + chapterSummary),
			GlobalSummary:    e.lookup.Global(),
			ContextSummaries: b.String(),
			UserQuery:        question,
		}),
	}
}

// assembleSearch runs retrieval and builds the scene prompt. done reports the
// empty-result short circuit.
func (e *ragEngine) assembleSearch(ctx context.Context, r *run) (assembled, bool, error) {
	question := r.req.Question

	start := time.Now()
	rewritten, err := e.expander.Expand(ctx, question)
	if err != nil {
		return assembled{}, false, err
	}
	r.rewritten = rewritten
	r.timed("rewrite", start)

	start = time.Now()
	fused, err := e.hybrid.Search(ctx, question, rewritten, e.opts.TopKRetrieve)
	if err != nil {
		return assembled{}, false, err
	}
	r.fused = fused
	r.timed("retrieve", start)
	if len(fused) == 0 {
		return assembled{}, true, nil
	}

	window := e.opts.WindowSize
	if r.req.WindowSize != nil {
		window = *r.req.WindowSize
	}
	start = time.Now()
	extended, err := e.window.Expand(ctx, fused, window)
	if err != nil {
		return assembled{}, false, err
	}
	r.timed("window", start)

	docs := make([]Document, len(fused))
	for i, c := range fused {
		text, ok := extended[c.ID]
		if !ok {
			text = c.Scene.Text
		}
		docs[i] = Document{
			Candidate: c,
			Extended:  text,
			Context: fmt.Sprintf("%s\n\n[참고 - 사건: %s]\n[참고 - 전체: %s]",
				text, e.lookup.Event(c.Scene.EventID), e.lookup.Chapter(c.Scene.ChapterID)),
		}
	}

	start = time.Now()
	ranked, err := e.reranker.Rerank(ctx, question, docs, e.opts.TopKFinal)
	if err != nil {
		return assembled{}, false, err
	}
	r.ranked = ranked
	r.timed("rerank", start)

	var eventLines, chapterLines, sceneLines []string
	seenEvents := map[string]struct{}{}
	seenChapters := map[string]struct{}{}
	for _, d := range ranked {
		s := d.Candidate.Scene
		sceneLines = append(sceneLines, fmt.Sprintf("- [%d화 %d컷] %s", s.ChapterID, s.SceneIdx, s.Text))

		if c := e.lookup.Chapter(s.ChapterID); c != "" {
			line := fmt.Sprintf("- [Ch.%d] %s", s.ChapterID, c)
			if _, ok := seenChapters[line]; !ok {
				seenChapters[line] = struct{}{}
				chapterLines = append(chapterLines, line)
			}
		}
		if ev := e.lookup.Event(s.EventID); ev != "" {
			line := "- [Event] " + ev
			if _, ok := seenEvents[line]; !ok {
				seenEvents[line] = struct{}{}
				eventLines = append(eventLines, line)
			}
		}
	}

	return assembled{
		system: SceneSystemPrompt,
		user: render(ScenePrompt, promptFields{
			CharacterInfo:    e.expander.ProfileLookup(question + " " + rewritten),
			GlobalSummary:    e.lookup.Global(),
			ContextSummaries: joinSummaries(eventLines, chapterLines),
			SceneDetails:     strings.Join(sceneLines, "\n"),
			UserQuery:        question,
		}),
	}, false, nil
}

// joinSummaries puts event lines before chapter lines, skipping empty groups.
func joinSummaries(groups ...[]string) string {
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		if len(g) > 0 {
			parts = append(parts, strings.Join(g, "\n"))
		}
	}
	return strings.Join(parts, "\n")
}

// finish builds the response and records the trace.
func (e *ragEngine) finish(ctx context.Context, r *run, answer string) AskResponse {
	logger := contextutil.LoggerFromContext(ctx)

	refs := make([]Reference, 0, len(r.ranked))
	for _, d := range r.ranked {
		refs = append(refs, reference(d))
	}

	resp := AskResponse{
		Answer:     answer,
		Intent:     r.decision.Intent,
		References: refs,
	}
	if r.decision.IsLookup() {
		resp.ChapterID = r.decision.ChapterID
	}

	fused := fusedDebug(r.fused)
	if r.req.Debug {
		resp.Debug = &DebugInfo{
			RewrittenQuery: r.rewritten,
			Fused:          fused,
			Reranked:       refs,
			StageLatencyMS: r.latency,
		}
	}

	if e.trace != nil {
		err := e.trace.Record(ctx, Trace{
			Query:          r.req.Question,
			Intent:         r.decision.Intent,
			ChapterID:      r.decision.ChapterID,
			RewrittenQuery: r.rewritten,
			Candidates:     fused,
			Reranked:       refs,
			AnswerLength:   len(answer),
		})
		if err != nil {
			logger.WarnContext(ctx, "failed to record trace", "error", err)
		}
	}
	return resp
}

func reference(d ScoredDocument) Reference {
	s := d.Candidate.Scene
	return Reference{
		UnitID:    d.Candidate.ID,
		ChapterID: s.ChapterID,
		SceneIdx:  s.SceneIdx,
		EventID:   s.EventID,
		ImageFile: s.ImageFile,
		Score:     d.Score,
		Text:      s.Text,
	}
}

func fusedDebug(candidates []Candidate) []FusedCandidate {
	out := make([]FusedCandidate, len(candidates))
	for i, c := range candidates {
		out[i] = FusedCandidate{
			UnitID:      c.ID,
			Rank:        i + 1,
			FusedScore:  c.FusedScore,
			VectorRank:  c.VectorRank,
			LexicalRank: c.LexicalRank,
		}
	}
	return out
}
