// Package model implements active-record models over the query builder.
//
// Models are declared as [Definition] values and registered with a
// [Store], which owns everything models share: the connection registry,
// the table schema cache, the validation message translator and the clock.
//
//	store := model.NewStore(conns, model.WithTranslator(catalog.For("en").Translate))
//	err := store.Register(model.Definition{
//		Name:       "Post",
//		Timestamps: true,
//		Validations: []model.Validation{
//			model.Validate("title", model.Required(), model.MaxLength(120)),
//			model.Validate("slug", model.Required(), model.Unique()),
//		},
//		Relations: map[string]model.Relation{
//			"author":   model.BelongsTo(model.Of("User")),
//			"comments": model.HasMany(),
//		},
//	})
//
// Records are created with [Model.New] and loaded with [Model.Find],
// [Model.FindBy], [Model.All] or any query started by [Model.Select]:
//
//	posts := store.MustModel("Post")
//	post := posts.New(map[string]any{"title": "Hello", "slug": "hello"})
//	ok, err := post.Save(ctx)
//	if err != nil {
//		return err
//	}
//	if !ok {
//		return render(post.ErrorMessages())
//	}
//
// # Validation
//
// Save validates first and never reaches the database when a rule fails.
// Validation failures are data, available through [Record.Errors]; Go
// errors are reserved for failed queries and filters. The [Unique] rule is
// advisory: the unique index is the source of truth and a duplicate-key
// error raised by it is reported as a "unique" validation error.
//
// # Relations
//
// [Record.BelongsTo] loads and caches the referenced record.
// [Record.HasMany] returns an unexecuted query scoped to the owner, which
// callers refine before fetching; [Record.Records] fetches and caches it.
//
// # Timestamps
//
// With Definition.Timestamps set, created_at and updated_at are stamped on
// save, stored as UTC and converted to the store location on load.
package model
