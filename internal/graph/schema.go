package graph

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"aurelia-be/internal/logger"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.uber.org/zap"
)

//go:embed schema.graphqls
var schemaSource string

var parsedSchema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphqls", Input: schemaSource})

var errInternal = errors.New("internal server error")

type fieldResolver func(ctx context.Context, a args) (any, error)

// executableSchema resolves root fields through Resolver and projects the
// result onto the client's selection set. Parsing and validation happen in
// gqlgen's executor before Exec is called.
type executableSchema struct {
	query    map[string]fieldResolver
	mutation map[string]fieldResolver
}

func NewExecutableSchema(r *Resolver) graphql.ExecutableSchema {
	return &executableSchema{
		query: map[string]fieldResolver{
			"order": r.order,
		},
		mutation: map[string]fieldResolver{
			"checkout":          r.checkout,
			"verifyPayment":     r.verifyPayment,
			"updateOrderStatus": r.updateOrderStatus,
		},
	}
}

func (e *executableSchema) Schema() *ast.Schema {
	return parsedSchema
}

func (e *executableSchema) Complexity(_ context.Context, _, _ string, _ int, _ map[string]any) (int, bool) {
	return 0, false
}

func (e *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)

	var (
		typeName  string
		resolvers map[string]fieldResolver
	)
	switch opCtx.Operation.Operation {
	case ast.Query:
		typeName, resolvers = "Query", e.query
	case ast.Mutation:
		typeName, resolvers = "Mutation", e.mutation
	default:
		return graphql.OneShot(graphql.ErrorResponse(ctx, "unsupported GraphQL operation"))
	}

	done := false
	return func(ctx context.Context) *graphql.Response {
		if done {
			return nil
		}
		done = true

		var buf bytes.Buffer
		errs := e.execRoot(ctx, opCtx, typeName, resolvers, &buf)
		return &graphql.Response{Data: buf.Bytes(), Errors: errs}
	}
}

// execRoot runs root fields in document order, which keeps mutations serial.
func (e *executableSchema) execRoot(
	ctx context.Context,
	opCtx *graphql.OperationContext,
	typeName string,
	resolvers map[string]fieldResolver,
	buf *bytes.Buffer,
) gqlerror.List {
	var errs gqlerror.List

	buf.WriteByte('{')
	for i, f := range graphql.CollectFields(opCtx, opCtx.Operation.SelectionSet, []string{typeName}) {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeKey(buf, f.Alias)

		if f.Name == "__typename" {
			writeScalar(buf, typeName)
			continue
		}

		val, err := resolveField(ctx, f, opCtx.Variables, resolvers)
		if err != nil {
			errs = append(errs, presentError(ctx, ast.Path{ast.PathName(f.Alias)}, f.Name, err))
			buf.WriteString("null")
			continue
		}
		writeValue(buf, opCtx, val, f.Selections)
	}
	buf.WriteByte('}')

	return errs
}

func resolveField(
	ctx context.Context,
	f graphql.CollectedField,
	vars map[string]any,
	resolvers map[string]fieldResolver,
) (val any, err error) {
	resolve, ok := resolvers[f.Name]
	if !ok {
		return nil, invalidInput("invalid_request", fmt.Sprintf("field %q is not available", f.Name))
	}

	defer func() {
		if r := recover(); r != nil {
			logger.FromCtx(ctx).Error("graphql resolver panic",
				zap.String("layer", "graph"),
				zap.String("field", f.Name),
				zap.Any("panic", r),
			)
			val, err = nil, errInternal
		}
	}()

	if f.Definition != nil {
		if err := checkAuth(ctx, f.Definition.Directives.ForName("auth")); err != nil {
			return nil, err
		}
	}

	return resolve(ctx, f.ArgumentMap(vars))
}

func writeValue(buf *bytes.Buffer, opCtx *graphql.OperationContext, v any, sel ast.SelectionSet) {
	switch v := v.(type) {
	case nil:
		buf.WriteString("null")
	case *object:
		if v == nil {
			buf.WriteString("null")
			return
		}
		buf.WriteByte('{')
		for i, f := range graphql.CollectFields(opCtx, sel, []string{v.typeName}) {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeKey(buf, f.Alias)
			if f.Name == "__typename" {
				writeScalar(buf, v.typeName)
				continue
			}
			writeValue(buf, opCtx, v.fields[f.Name], f.Selections)
		}
		buf.WriteByte('}')
	case []*object:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeValue(buf, opCtx, item, sel)
		}
		buf.WriteByte(']')
	default:
		writeScalar(buf, v)
	}
}

func writeKey(buf *bytes.Buffer, key string) {
	writeScalar(buf, key)
	buf.WriteByte(':')
}

func writeScalar(buf *bytes.Buffer, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		buf.WriteString("null")
		return
	}
	buf.Write(b)
}
