// Package firestoredb imports MealDB-shaped recipe documents from a Firestore
// collection. It only reads; nothing is ever written back.
package firestoredb

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"recipebox/mealdb"
	"recipebox/models"
)

type Source struct {
	client     *firestore.Client
	collection string
}

// Open creates a Firestore client for project. credentialsFile may be empty to
// use application default credentials or the emulator.
func Open(ctx context.Context, project, collection, credentialsFile string) (*Source, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: create client: %w", err)
	}
	return NewSource(client, collection), nil
}

func NewSource(client *firestore.Client, collection string) *Source {
	return &Source{client: client, collection: collection}
}

// FetchRecipes reads every document in the collection. A document without an
// idMeal field takes its document id.
func (s *Source) FetchRecipes(ctx context.Context) ([]models.Recipe, error) {
	iter := s.client.Collection(s.collection).Documents(ctx)
	defer iter.Stop()

	var recipes []models.Recipe
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore: read %s: %w", s.collection, err)
		}

		raw := mealdb.RawFromMap(doc.Data())
		if raw.IDMeal == "" {
			raw.IDMeal = doc.Ref.ID
		}
		recipes = append(recipes, raw.Recipe())
	}
	return recipes, nil
}

func (s *Source) Close() error {
	return s.client.Close()
}
