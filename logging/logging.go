/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package logging provides the package-wide logr.Logger used by source
// and cmd/flowcollectord. It follows the delegating-sink pattern (adapted
// from Kubernetes' controller-runtime/log package) so that packages can
// log through Log, and derive named loggers from it, before an operator
// has called SetLogger: derived loggers are bound to the real sink once
// it is installed, and calls made before then are discarded.
package logging

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
)

// SetLogger installs l as the backing sink for every logger derived
// from Log, including ones already handed out via WithName/WithValues
// before this call.
func SetLogger(l logr.Logger) {
	root.Fulfill(l.GetSink())
}

// FromContext returns the logger embedded in ctx, falling back to Log.
func FromContext(ctx context.Context, keysAndValues ...interface{}) logr.Logger {
	log := Log
	if ctx != nil {
		if logger, err := logr.FromContext(ctx); err == nil {
			log = logger
		}
	}
	return log.WithValues(keysAndValues...)
}

// IntoContext embeds l into ctx for later retrieval via FromContext.
func IntoContext(ctx context.Context, l logr.Logger) context.Context {
	return logr.NewContext(ctx, l)
}

var (
	root = newDelegatingLogSink(nullLogSink{})
	// Log is the package root logger. Until SetLogger is called, Log
	// discards everything.
	Log = logr.New(root)
)

type nullLogSink struct{}

var _ logr.LogSink = nullLogSink{}

func (nullLogSink) Init(logr.RuntimeInfo)                     {}
func (nullLogSink) Info(_ int, _ string, _ ...interface{})    {}
func (nullLogSink) Error(_ error, _ string, _ ...interface{}) {}
func (nullLogSink) Enabled(_ int) bool                        { return false }
func (log nullLogSink) WithName(_ string) logr.LogSink        { return log }
func (log nullLogSink) WithValues(_ ...interface{}) logr.LogSink {
	return log
}

type loggerPromise struct {
	logger        *delegatingLogSink
	childPromises []*loggerPromise
	promisesLock  sync.Mutex

	name *string
	tags []interface{}
}

func (p *loggerPromise) WithName(l *delegatingLogSink, name string) *loggerPromise {
	res := &loggerPromise{logger: l, name: &name}

	p.promisesLock.Lock()
	defer p.promisesLock.Unlock()
	p.childPromises = append(p.childPromises, res)
	return res
}

func (p *loggerPromise) WithValues(l *delegatingLogSink, tags ...interface{}) *loggerPromise {
	res := &loggerPromise{logger: l, tags: tags}

	p.promisesLock.Lock()
	defer p.promisesLock.Unlock()
	p.childPromises = append(p.childPromises, res)
	return res
}

func (p *loggerPromise) Fulfill(parentLogSink logr.LogSink) {
	sink := parentLogSink
	if p.name != nil {
		sink = sink.WithName(*p.name)
	}
	if p.tags != nil {
		sink = sink.WithValues(p.tags...)
	}

	p.logger.lock.Lock()
	p.logger.logger = sink
	p.logger.promise = nil
	p.logger.lock.Unlock()

	for _, child := range p.childPromises {
		child.Fulfill(sink)
	}
}

type delegatingLogSink struct {
	lock    sync.RWMutex
	logger  logr.LogSink
	promise *loggerPromise
	info    logr.RuntimeInfo
}

func (l *delegatingLogSink) Init(info logr.RuntimeInfo) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.info = info
}

func (l *delegatingLogSink) Enabled(level int) bool {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.logger.Enabled(level)
}

func (l *delegatingLogSink) Info(level int, msg string, keysAndValues ...interface{}) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	l.logger.Info(level, msg, keysAndValues...)
}

func (l *delegatingLogSink) Error(err error, msg string, keysAndValues ...interface{}) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	l.logger.Error(err, msg, keysAndValues...)
}

func (l *delegatingLogSink) WithName(name string) logr.LogSink {
	l.lock.RLock()
	defer l.lock.RUnlock()

	if l.promise == nil {
		return l.logger.WithName(name)
	}

	res := &delegatingLogSink{logger: l.logger}
	res.promise = l.promise.WithName(res, name)
	return res
}

func (l *delegatingLogSink) WithValues(tags ...interface{}) logr.LogSink {
	l.lock.RLock()
	defer l.lock.RUnlock()

	if l.promise == nil {
		return l.logger.WithValues(tags...)
	}

	res := &delegatingLogSink{logger: l.logger}
	res.promise = l.promise.WithValues(res, tags...)
	return res
}

func (l *delegatingLogSink) Fulfill(actual logr.LogSink) {
	if actual == nil {
		actual = nullLogSink{}
	}
	if l.promise != nil {
		l.promise.Fulfill(actual)
	}
}

func newDelegatingLogSink(initial logr.LogSink) *delegatingLogSink {
	l := &delegatingLogSink{logger: initial, promise: &loggerPromise{}}
	l.promise.logger = l
	return l
}
