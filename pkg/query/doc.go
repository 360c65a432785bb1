// Package query builds and executes parameterized SQL with MySQL-style
// backtick-quoted identifiers.
//
// A [Conn] wraps a database handle and hands out builders:
//
//	conn, _ := query.NewConn(db, query.WithDialect(query.SQLite))
//
//	rows, err := conn.Select("id", "title").
//		From("posts").
//		Where("status = ?", "published").
//		Where("author_id IN ?", []int{1, 2}).
//		OrderBy("created_at", "desc").
//		Limit(10).
//		FetchAll(ctx)
//
// assembles to
//
//	SELECT `posts`.`id`, `posts`.`title` FROM `posts`
//	WHERE (`posts`.`status` = :posts_status) OR (`posts`.`author_id` IN (:posts_author_id_1, :posts_author_id_2))
//	ORDER BY `posts`.`created_at` DESC LIMIT 10
//
// # Conditions
//
// Each Where call opens a new group; groups are OR-ed and the conditions of
// one group are AND-ed. [Builder.MergeNextWhere] makes the next call join
// the last group instead, and [Builder.Scope] adds a condition to every
// group.
//
// # Binding
//
// Every value is bound through a named placeholder derived from the
// qualified column, including empty strings, zero and nil. The NOW() marker
// binds the current UTC time, NULL renders a literal NULL, time.Time values
// are bound as UTC strings and composite values are JSON encoded. Named
// placeholders are converted to driver arguments with
// [github.com/gandaldf/sqlr] when the statement executes.
//
// # Errors
//
// Invalid builder state yields an [*AssemblyError]; [Builder.SQL] panics
// with it. Driver failures are reported as [*ExecError] carrying the
// statement text. Nothing is retried.
package query
