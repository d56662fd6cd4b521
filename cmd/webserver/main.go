package main

import (
	"context"
	"embed"
	"encoding/json"
	"flag"
	"html/template"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"quizbank"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
)

//go:embed templates/*.html
var templateFS embed.FS

const sessionName = "quiz-session"

type Server struct {
	pipeline  *quizbank.Pipeline
	store     sessions.Store
	templates map[string]*template.Template

	rngMu sync.Mutex
	rng   *rand.Rand
}

// questionView is what quiz.html renders
type questionView struct {
	Index    int
	Total    int
	Question quizbank.Question
	Multi    bool
	Selected map[string]bool
	Answered bool
	Correct  bool
	Answer   string
	Empty    bool
}

func main() {
	configPath := flag.String("config", "quizbank.yaml", "YAML config file")
	verbose := flag.Bool("verbose", false, "Enable verbose debugging output")
	flag.Parse()

	quizbank.SetVerbose(*verbose)

	cfg, err := quizbank.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	bankStore, closeStore, err := quizbank.OpenStore(context.Background(), cfg.Store)
	if err != nil {
		log.Fatalf("Failed to open bank store: %v", err)
	}
	defer closeStore()

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		log.Printf("SESSION_SECRET not set, using development key")
		secret = "quizbank-development-session-key"
	}

	pipeline := quizbank.NewPipeline(quizbank.NewExtractor(cfg.ExtractorConfig()), bankStore, cfg.PipelineOptions()...)
	server := NewServer(pipeline, sessions.NewCookieStore([]byte(secret)))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8180"
	}

	log.Printf("Starting server on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, server.Routes()))
}

// NewServer parses the templates and builds a server around pipeline
func NewServer(pipeline *quizbank.Pipeline, store sessions.Store) *Server {
	funcMap := template.FuncMap{
		"join": strings.Join,
	}

	templates := make(map[string]*template.Template)
	for _, name := range []string{"quiz", "import"} {
		templates[name] = template.Must(template.New(name).Funcs(funcMap).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html"))
	}

	return &Server{
		pipeline:  pipeline,
		store:     store,
		templates: templates,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Routes registers every handler
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleQuiz).Methods(http.MethodGet)
	r.HandleFunc("/answer", s.handleAnswer).Methods(http.MethodPost)
	r.HandleFunc("/next", s.handleNext).Methods(http.MethodPost)
	r.HandleFunc("/import", s.handleImportForm).Methods(http.MethodGet)
	r.HandleFunc("/import", s.handleImport).Methods(http.MethodPost)
	r.HandleFunc("/clear", s.handleClear).Methods(http.MethodPost)
	r.HandleFunc("/api/bank", s.handleBankJSON).Methods(http.MethodGet)
	return r
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	bank, err := s.pipeline.Bank(r.Context())
	if err != nil {
		log.Printf("Failed to load bank: %v", err)
		http.Error(w, "Failed to load bank", http.StatusInternalServerError)
		return
	}

	session, _ := s.store.Get(r, sessionName)
	index := s.currentIndex(session, bank)
	session.Values["current"] = index
	if err := session.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}

	s.render(w, "quiz", newQuestionView(bank, index))
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	bank, err := s.pipeline.Bank(r.Context())
	if err != nil {
		log.Printf("Failed to load bank: %v", err)
		http.Error(w, "Failed to load bank", http.StatusInternalServerError)
		return
	}

	session, _ := s.store.Get(r, sessionName)
	index, ok := session.Values["current"].(int)
	if !ok || index < 0 || index >= len(bank) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	view := newQuestionView(bank, index)
	selected := r.Form["choice"]
	if !view.Multi && len(selected) > 1 {
		selected = selected[:1]
	}
	for _, label := range selected {
		view.Selected[label] = true
	}
	view.Answered = true
	view.Correct = quizbank.CheckAnswer(view.Question, selected)

	s.render(w, "quiz", view)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	session, _ := s.store.Get(r, sessionName)
	delete(session.Values, "current")
	if err := session.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleImportForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, "import", nil)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	text := r.FormValue("text")
	if strings.TrimSpace(text) == "" {
		http.Error(w, "Text is required", http.StatusBadRequest)
		return
	}

	bank, report := s.pipeline.Ingest(r.Context(), text)
	s.render(w, "import", map[string]interface{}{
		"Report":  report,
		"Summary": report.Summary(),
		"Total":   len(bank),
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.Clear(r.Context()); err != nil {
		log.Printf("Failed to clear bank: %v", err)
		http.Error(w, "Failed to clear bank", http.StatusInternalServerError)
		return
	}

	session, _ := s.store.Get(r, sessionName)
	delete(session.Values, "current")
	if err := session.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleBankJSON(w http.ResponseWriter, r *http.Request) {
	bank, err := s.pipeline.Bank(r.Context())
	if err != nil {
		log.Printf("Failed to load bank: %v", err)
		http.Error(w, "Failed to load bank", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(bank); err != nil {
		log.Printf("Failed to encode bank: %v", err)
	}
}

// currentIndex keeps the session's question while it is valid, otherwise picks a random one
func (s *Server) currentIndex(session *sessions.Session, bank quizbank.Bank) int {
	if index, ok := session.Values["current"].(int); ok && index >= 0 && index < len(bank) {
		return index
	}

	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	_, index, _ := bank.Random(s.rng)
	return index
}

func newQuestionView(bank quizbank.Bank, index int) questionView {
	if index < 0 || index >= len(bank) {
		return questionView{Empty: true}
	}
	q := bank[index]
	return questionView{
		Index:    index,
		Total:    len(bank),
		Question: q,
		Multi:    q.IsMulti(),
		Selected: make(map[string]bool),
		Answer:   strings.Join(q.CorrectLabels(), ""),
	}
}

func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	if err := s.templates[name].ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Template error in %s: %v", name, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
