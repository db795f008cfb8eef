// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package transform

import (
	"strconv"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"

	"github.com/gogpu/acc2omp/ast"
	"github.com/gogpu/acc2omp/config"
	"github.com/gogpu/acc2omp/sema"
)

// AsyncTable assigns an OpenMP dependence token to every OpenACC async
// queue a unit mentions. A token is a variable whose address orders the
// target tasks of one queue through depend clauses.
type AsyncTable struct {
	tokens *treemap.Map // int64 queue -> string token
	def    int64
	known  bool
}

// NewAsyncTable returns a table whose default queue is def.
func NewAsyncTable(def int64) *AsyncTable {
	return &AsyncTable{
		tokens: treemap.NewWith(utils.Int64Comparator),
		def:    def,
		known:  true,
	}
}

// SetDefault makes q the queue of bare async clauses and of
// acc_async_noval.
func (t *AsyncTable) SetDefault(q int64) {
	t.def = q
	t.known = true
}

// ForgetDefault records that the default queue can no longer be
// determined statically.
func (t *AsyncTable) ForgetDefault() { t.known = false }

// Default returns the current default queue.
func (t *AsyncTable) Default() (int64, bool) { return t.def, t.known }

// Token returns the token of queue q. acc_async_noval resolves to the
// current default queue. It reports false for invalid queues and for
// acc_async_noval while the default is unknown.
func (t *AsyncTable) Token(q int64) (string, bool) {
	if q == config.AsyncNoval {
		if !t.known {
			return "", false
		}
		q = t.def
	}
	if q < config.AsyncSync {
		return "", false
	}
	if tok, ok := t.tokens.Get(q); ok {
		return tok.(string), true
	}
	tok := TokenName(q)
	t.tokens.Put(q, tok)
	return tok, true
}

// Tokens returns every token handed out, in queue order.
func (t *AsyncTable) Tokens() []string {
	out := make([]string, 0, t.tokens.Size())
	for _, v := range t.tokens.Values() {
		out = append(out, v.(string))
	}
	return out
}

// TokenName returns the token variable name of queue q.
func TokenName(q int64) string {
	switch q {
	case config.AsyncSync:
		return "__acc_async_sync"
	case config.AsyncNoval:
		return "__acc_async_noval"
	}
	return "__acc_async_" + strconv.FormatInt(q, 10)
}

// QueueValue evaluates an async or wait argument. The openacc.h constants
// acc_async_sync and acc_async_noval are recognized unless the program
// declares a variable of that name.
func QueueValue(e ast.Expr) (int64, bool) {
	if e == nil {
		return config.AsyncNoval, true
	}
	if id, ok := ast.StripParens(e).(*ast.Ident); ok && !id.Decl.IsValid() {
		switch id.Name {
		case "acc_async_sync":
			return config.AsyncSync, true
		case "acc_async_noval":
			return config.AsyncNoval, true
		}
	}
	return sema.ConstInt(e)
}
