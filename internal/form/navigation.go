package form

// Answer records value for questionID. When questionID is the question on
// screen and it is not the last one, the position advances by one. Unknown
// ids and a submitted session leave the state unchanged.
func (s *Session) Answer(questionID string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusSucceeded || !s.known(questionID) {
		return
	}
	s.answers[questionID] = value

	current, ok := s.currentLocked()
	if ok && current.ID == questionID && s.position < len(s.questions)-1 {
		s.position++
	}
}

// GoPrevious moves back one question; a no-op at the first question.
func (s *Session) GoPrevious() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusSucceeded {
		return
	}
	if s.position > 0 {
		s.position--
	}
}

// SetObservation stores free text for questionID without touching the position.
func (s *Session) SetObservation(questionID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusSucceeded || !s.known(questionID) {
		return
	}
	s.observations[questionID] = text
}
