package main

import (
	"fmt"
	"sync"
)

// toastNotifier is the terminal stand-in for the web client's toasts.
type toastNotifier struct{}

func (toastNotifier) Success(detail string) { fmt.Println("[ok]", detail) }
func (toastNotifier) Info(detail string)    { fmt.Println("[..]", detail) }
func (toastNotifier) Error(detail string)   { fmt.Println("[!!]", detail) }

// homeNavigator signals the play loop that the session navigated home.
type homeNavigator struct {
	once sync.Once
	done chan struct{}
}

func newHomeNavigator() *homeNavigator {
	return &homeNavigator{done: make(chan struct{})}
}

func (n *homeNavigator) Home() {
	n.once.Do(func() { close(n.done) })
}

func (n *homeNavigator) Done() <-chan struct{} { return n.done }

// noopNavigator is used by commands that never enter a room.
type noopNavigator struct{}

func (noopNavigator) Home() {}
