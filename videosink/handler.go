// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package videosink

import (
	"log"
	"mime"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"
)

type request struct {
	format   ImageFormat
	snapshot bool
}

func (s *Sink) parseQuery(values url.Values) (request, error) {
	req := request{format: s.opts.Format}
	if value := values.Get("format"); value != "" {
		f, err := ParseFormat(value)
		if err != nil {
			return request{}, err
		}
		req.format = f
	}
	_, req.snapshot = values["snapshot"]
	return req, nil
}

type client struct {
	refresh   chan struct{}
	terminate chan struct{}
}

func (s *Sink) bufferChangedLocked() {
	for format, buf := range s.snapshot {
		//lint:ignore SA6002 buf is []byte and thus pointer-like
		bufferPool.Put(buf)
		delete(s.snapshot, format)
	}
	for c := range s.clients {
		select {
		case c.refresh <- struct{}{}:
		default:
		}
	}
}

func (s *Sink) terminateClientsLocked() {
	for c := range s.clients {
		select {
		case c.terminate <- struct{}{}:
		default:
		}
	}
}

// ServeHTTP handles GET requests with a stream of images of the buffer, or
// a single image with "?snapshot". Clients pick the format with
// "?format=png" or "?format=jpeg".
func (s *Sink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.Body.Close(); err != nil {
		log.Printf("videosink: closing request body failed: %v", err)
	}
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	req, err := s.parseQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.snapshot {
		s.serveSnapshot(w, req.format)
		return
	}

	pw := newPartWriter(w)
	w.Header().Set("Content-Type", mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{
		"boundary": pw.boundary,
	}))
	w.Header().Set("Cache-Control", "no-store")

	c := &client{
		refresh:   make(chan struct{}, 1),
		terminate: make(chan struct{}, 1),
	}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
	}()

	var keepalive <-chan time.Time
	if s.opts.Keepalive > 0 {
		t := time.NewTicker(s.opts.Keepalive)
		defer t.Stop()
		keepalive = t.C
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Type", req.format.mimeType())
	header.Set("Content-Transfer-Encoding", "binary")
	for {
		payload, err := s.grabSnapshot(req.format)
		if err != nil {
			log.Printf("videosink: encoding %s failed: %v", req.format, err)
			return
		}
		err = pw.writeFrame(header, payload)
		//lint:ignore SA6002 payload is []byte and thus pointer-like
		bufferPool.Put(payload)
		if err != nil {
			// There is no way to deliver an error within an image stream.
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		select {
		case <-c.refresh:
		case <-keepalive:
		case <-c.terminate:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Sink) serveSnapshot(w http.ResponseWriter, format ImageFormat) {
	payload, err := s.grabSnapshot(format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer bufferPool.Put(payload)
	w.Header().Set("Content-Type", format.mimeType())
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(payload)
}
