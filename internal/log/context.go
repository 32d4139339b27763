/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	docKey ctxKey = iota
	curveKey
)

// ContextWithDocument stores the path of the open document; records logged
// with that context carry it as "doc".
func ContextWithDocument(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, docKey, path)
}

// ContextWithCurve stores the curve id; records logged with that context
// carry it as "curve".
func ContextWithCurve(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, curveKey, id)
}

func withContext(h slog.Handler) slog.Handler { return &ctxHandler{next: h} }

// ctxHandler copies the document and curve from the context onto the record.
type ctxHandler struct{ next slog.Handler }

func (h *ctxHandler) Enabled(ctx context.Context, l slog.Level) bool { return h.next.Enabled(ctx, l) }

func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if v, ok := ctx.Value(docKey).(string); ok && v != "" {
			r.AddAttrs(slog.String("doc", v))
		}
		if v, ok := ctx.Value(curveKey).(string); ok && v != "" {
			r.AddAttrs(slog.String("curve", v))
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(as []slog.Attr) slog.Handler {
	return &ctxHandler{next: h.next.WithAttrs(as)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{next: h.next.WithGroup(name)}
}
