package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"

	"github.com/i474232898/surfspots/internal/apperr"
	"github.com/i474232898/surfspots/internal/blog"
	"github.com/i474232898/surfspots/internal/countries"
)

// gqlHandler serves a read-only GraphQL view of spots and their countries.
type gqlHandler struct {
	blog     *blog.Service
	registry *countries.Registry
	logger   zerolog.Logger

	schema graphql.Schema
}

type gqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

func newGraphQLHandler(svc *blog.Service, registry *countries.Registry, logger zerolog.Logger) (*gqlHandler, error) {
	gh := &gqlHandler{
		blog:     svc,
		registry: registry,
		logger:   logger,
	}

	if err := gh.initSchema(); err != nil {
		return nil, err
	}
	return gh, nil
}

func (gh *gqlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req gqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error":   true,
			"message": "body must be a JSON object with a query",
		})
		return
	}

	res := graphql.Do(graphql.Params{
		Context:        r.Context(),
		Schema:         gh.schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
	})
	if res.HasErrors() {
		gh.logger.Debug().Interface("errors", res.Errors).Msg("graphql query failed")
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		gh.logger.Error().Err(err).Msg("encode graphql response")
	}
}

func (gh *gqlHandler) initSchema() error {
	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":   &graphql.Field{Type: graphql.ID},
			"name": &graphql.Field{Type: graphql.String},
		},
	})

	commentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Comment",
		Fields: graphql.Fields{
			"id":     &graphql.Field{Type: graphql.ID},
			"text":   &graphql.Field{Type: graphql.String},
			"author": &graphql.Field{Type: userType},
		},
	})

	spotType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Spot",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.ID},
			"nameBeach":   &graphql.Field{Type: graphql.String},
			"city":        &graphql.Field{Type: graphql.String},
			"country":     &graphql.Field{Type: graphql.String},
			"continent":   &graphql.Field{Type: graphql.String},
			"mapsUrl":     &graphql.Field{Type: graphql.String},
			"access":      &graphql.Field{Type: graphql.String},
			"clima":       &graphql.Field{Type: graphql.String},
			"waveQuality": &graphql.Field{Type: graphql.String},
			"infos":       &graphql.Field{Type: graphql.String},
			"imgUrl":      &graphql.Field{Type: graphql.String},
			"date":        &graphql.Field{Type: graphql.String},
			"author":      &graphql.Field{Type: userType},
			"comments":    &graphql.Field{Type: graphql.NewList(commentType)},
		},
	})

	countryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CountryCount",
		Fields: graphql.Fields{
			"country": &graphql.Field{Type: graphql.String},
			"code":    &graphql.Field{Type: graphql.String},
			"count":   &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"spots":     gh.spotsQuery(spotType),
			"spot":      gh.spotQuery(spotType),
			"countries": gh.countriesQuery(countryType),
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
	if err != nil {
		return err
	}
	gh.schema = schema
	return nil
}

func (gh *gqlHandler) spotsQuery(spotType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewList(spotType),
		Args: graphql.FieldConfigArgument{
			"country": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			country, _ := p.Args["country"].(string)
			return gh.blog.Spots(p.Context, country)
		},
	}
}

func (gh *gqlHandler) spotQuery(spotType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: spotType,
		Args: graphql.FieldConfigArgument{
			"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			raw, _ := p.Args["id"].(string)
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return nil, nil
			}
			spot, err := gh.blog.Spot(p.Context, uint(id))
			if apperr.KindOf(err) == apperr.NotFound {
				return nil, nil
			}
			return spot, err
		},
	}
}

func (gh *gqlHandler) countriesQuery(countryType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewList(countryType),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			spots, err := gh.blog.Spots(p.Context, "")
			if err != nil {
				return nil, err
			}
			names := make([]string, len(spots))
			for i, s := range spots {
				names[i] = s.Country
			}
			return gh.registry.Aggregate(names), nil
		},
	}
}
