// Package stream is an in-process imitation of the push stream server's HTTP interface. It is
// used to test the harness itself without an nginx installation.
//
// It implements just enough of the publisher, subscriber and statistics locations for the
// verification calls to have something realistic to talk to: published messages are rendered
// through a message template and written to every subscriber of the channel, and each
// subscriber connection starts with the header template.
package stream

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"
)

// Server is a fake push stream server listening on a local port.
type Server struct {
	URL             string
	MessageTemplate string
	HeaderTemplate  string

	server   *httptest.Server
	channels map[string]*channel
	lastID   int
	lock     sync.Mutex
}

type channel struct {
	published   int
	subscribers map[*subscriber]struct{}
}

type subscriber struct {
	data chan string
}

// NewServer starts a fake server whose message template is "~text~" and which sends no
// header. Set the template fields before any request is made to change that.
func NewServer() *Server {
	s := &Server{
		MessageTemplate: "~text~",
		channels:        make(map[string]*channel),
	}
	router := mux.NewRouter()
	router.HandleFunc("/pub", s.servePublish)
	router.HandleFunc("/sub/{channels:.+}", s.serveSubscribe).Methods("GET")
	router.HandleFunc("/channels_stats", s.serveStats)
	s.server = httptest.NewServer(router)
	s.URL = s.server.URL
	return s
}

// Close shuts down the server and breaks every open subscriber connection.
func (s *Server) Close() {
	s.EndStreams()
	s.server.Close()
}

// EndStreams makes the server close every open subscriber connection.
func (s *Server) EndStreams() {
	s.lock.Lock()
	defer s.lock.Unlock()
	subs := make(map[*subscriber]struct{})
	for _, ch := range s.channels {
		for sub := range ch.subscribers {
			subs[sub] = struct{}{}
			delete(ch.subscribers, sub)
		}
	}
	for sub := range subs {
		close(sub.data)
	}
}

// Subscribers returns the number of open connections for a channel.
func (s *Server) Subscribers(id string) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	if ch := s.channels[id]; ch != nil {
		return len(ch.subscribers)
	}
	return 0
}

func (s *Server) channel(id string) *channel {
	ch := s.channels[id]
	if ch == nil {
		ch = &channel{subscribers: make(map[*subscriber]struct{})}
		s.channels[id] = ch
	}
	return ch
}

func (s *Server) render(id int, channelID, text string) string {
	r := strings.NewReplacer("~id~", strconv.Itoa(id), "~channel~", channelID, "~text~", text)
	return r.Replace(s.MessageTemplate)
}

type channelInfo struct {
	Channel           string `json:"channel"`
	PublishedMessages string `json:"published_messages"`
	StoredMessages    string `json:"stored_messages"`
	Subscribers       string `json:"subscribers"`
}

func (s *Server) info(id string, ch *channel) channelInfo {
	return channelInfo{
		Channel:           id,
		PublishedMessages: strconv.Itoa(ch.published),
		StoredMessages:    strconv.Itoa(ch.published),
		Subscribers:       strconv.Itoa(len(ch.subscribers)),
	}
}

func (s *Server) servePublish(w http.ResponseWriter, req *http.Request) {
	id := req.URL.Query().Get("id")
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if req.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := ioutil.ReadAll(req.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.lock.Lock()
	ch := s.channel(id)
	ch.published++
	s.lastID++
	message := s.render(s.lastID, id, string(body))
	for sub := range ch.subscribers {
		sub.data <- message
	}
	info := s.info(id, ch)
	s.lock.Unlock()

	writeJSON(w, info)
}

func (s *Server) serveStats(w http.ResponseWriter, req *http.Request) {
	id := req.URL.Query().Get("id")
	s.lock.Lock()
	defer s.lock.Unlock()
	if id == "" {
		writeJSON(w, map[string]string{"channels": strconv.Itoa(len(s.channels))})
		return
	}
	ch := s.channels[id]
	if ch == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, s.info(id, ch))
}

func (s *Server) serveSubscribe(w http.ResponseWriter, req *http.Request) {
	ids := strings.Split(mux.Vars(req)["channels"], "/")
	sub := &subscriber{data: make(chan string, 100)}

	s.lock.Lock()
	for _, id := range ids {
		if id == "" {
			s.lock.Unlock()
			w.WriteHeader(http.StatusBadRequest)
			return
		}
	}
	for _, id := range ids {
		s.channel(id).subscribers[sub] = struct{}{}
	}
	header := s.HeaderTemplate
	s.lock.Unlock()

	defer func() {
		s.lock.Lock()
		for _, id := range ids {
			delete(s.channels[id].subscribers, sub)
		}
		s.lock.Unlock()
	}()

	flusher := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if header != "" {
		_, _ = w.Write([]byte(header))
	}
	flusher.Flush()

	closeNotifyCh := req.Context().Done()
	for {
		select {
		case message, ok := <-sub.data:
			if !ok {
				return
			}
			if _, err := w.Write([]byte(message)); err != nil {
				return
			}
			flusher.Flush()
		case <-closeNotifyCh:
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
