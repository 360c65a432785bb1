package query_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mvc/pkg/query"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))

func newConn(t *testing.T, opts ...query.ConnOption) *query.Conn {
	t.Helper()

	opts = append([]query.ConnOption{query.WithClock(func() time.Time { return fixedNow })}, opts...)
	c, err := query.NewConn(nil, opts...)
	require.NoError(t, err)
	return c
}

func TestBuilder_Select(t *testing.T) {
	t.Parallel()

	t.Run("selects every column by default", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		require.Equal(t, "SELECT `posts`.* FROM `posts`", c.Select().From("posts").SQL())
	})

	t.Run("qualifies and aliases columns", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		sql := c.Select("id", "title AS heading", "users.name").From("posts").SQL()
		require.Equal(t, "SELECT `posts`.`id`, `posts`.`title` AS `heading`, `users`.`name` FROM `posts`", sql)
	})

	t.Run("quotes identifiers inside function calls only", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		sql := c.Select("COUNT(*) AS total", "MAX(views)").From("posts").OrderBy("total", "desc").SQL()
		require.Equal(t, "SELECT COUNT(*) AS `total`, MAX(`posts`.`views`) FROM `posts` ORDER BY `total` DESC", sql)
	})

	t.Run("distinct", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		require.Equal(t, "SELECT DISTINCT `posts`.`status` FROM `posts`", c.SelectDistinct("status").From("posts").SQL())
	})

	t.Run("joins add qualified columns", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		sql := c.Select("id", "title").
			From("posts").
			Join("users", "users.id = posts.user_id", "name AS author").
			SQL()
		require.Equal(t,
			"SELECT `posts`.`id`, `posts`.`title`, `users`.`name` AS `author` FROM `posts` LEFT JOIN `users` ON users.id = posts.user_id",
			sql)
	})

	t.Run("order by renders before limit", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		sql := c.Select().From("posts").
			Limit(10, 20).
			OrderBy("created_at", "desc").
			OrderBy("id", "").
			SQL()
		require.Equal(t, "SELECT `posts`.* FROM `posts` ORDER BY `posts`.`created_at` DESC, `posts`.`id` ASC LIMIT 10, 20", sql)
	})

	t.Run("order by map uses key order", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		sql := c.Select().From("posts").OrderByMap(map[string]string{"title": "asc", "id": "DESC"}).SQL()
		require.Equal(t, "SELECT `posts`.* FROM `posts` ORDER BY `posts`.`id` DESC, `posts`.`title` ASC", sql)
	})
}

func TestBuilder_WhereGrouping(t *testing.T) {
	t.Parallel()

	t.Run("separate calls are OR-ed", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		b := c.Select().From("t").Where("a = ?", 1).Where("b = ?", 2)
		require.Equal(t, "SELECT `t`.* FROM `t` WHERE (`t`.`a` = :t_a) OR (`t`.`b` = :t_b)", b.SQL())
		require.Equal(t, map[string]any{"t_a": 1, "t_b": 2}, b.Binds())
	})

	t.Run("merge flag AND-s into the last group once", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		b := c.Select().From("t").
			Where("a = ?", 1).
			MergeNextWhere(true).
			Where("b = ?", 2).
			Where("c = ?", 3)
		require.Equal(t, "SELECT `t`.* FROM `t` WHERE (`t`.`a` = :t_a AND `t`.`b` = :t_b) OR (`t`.`c` = :t_c)", b.SQL())
	})

	t.Run("merge flag without a group opens one", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		b := c.Select().From("t").MergeNextWhere(true).Where("a = ?", 1)
		require.Equal(t, "SELECT `t`.* FROM `t` WHERE (`t`.`a` = :t_a)", b.SQL())
	})

	t.Run("where map is one group", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		b := c.Select().From("posts").WhereMap(map[string]any{"status": "draft", "views > ?": 10})
		require.Equal(t, "SELECT `posts`.* FROM `posts` WHERE (`posts`.`status` = :posts_status AND `posts`.`views` > :posts_views)", b.SQL())
	})

	t.Run("scope is AND-ed into every group", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		b := c.Select().From("comments").
			Scope("post_id = ?", 3).
			Where("approved = ?", 1).
			Where("author = ?", "bob")
		require.Equal(t,
			"SELECT `comments`.* FROM `comments` WHERE "+
				"(`comments`.`post_id` = :comments_post_id AND `comments`.`approved` = :comments_approved) OR "+
				"(`comments`.`post_id` = :comments_post_id AND `comments`.`author` = :comments_author)",
			b.SQL())
		require.Len(t, b.Binds(), 3)
	})

	t.Run("scope alone forms the where clause", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		b := c.Select().From("comments").Scope("post_id = ?", 3)
		require.Equal(t, "SELECT `comments`.* FROM `comments` WHERE (`comments`.`post_id` = :comments_post_id)", b.SQL())
	})

	t.Run("no conditions, no where", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		require.NotContains(t, c.Delete().From("t").SQL(), "WHERE")
	})
}

func TestBuilder_Binding(t *testing.T) {
	t.Parallel()

	t.Run("binds empty, zero and nil values", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		b := c.Select().From("posts").
			Where("title = ?", "").
			Where("views = ?", 0).
			Where("deleted_at = ?", nil)

		require.Equal(t,
			"SELECT `posts`.* FROM `posts` WHERE (`posts`.`title` = :posts_title) OR (`posts`.`views` = :posts_views) OR (`posts`.`deleted_at` = :posts_deleted_at)",
			b.SQL())

		binds := b.Binds()
		require.Len(t, binds, 3)
		require.Contains(t, binds, "posts_title")
		require.Contains(t, binds, "posts_views")
		require.Contains(t, binds, "posts_deleted_at")
		require.Equal(t, "", binds["posts_title"])
		require.Equal(t, 0, binds["posts_views"])
		require.Nil(t, binds["posts_deleted_at"])
	})

	t.Run("insert binds every value", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		b := c.Insert(map[string]any{"title": "", "views": 0, "body": nil}).Into("posts")

		require.Equal(t, "INSERT INTO `posts` (`body`, `title`, `views`) VALUES (:posts_body, :posts_title, :posts_views)", b.SQL())
		require.Equal(t, map[string]any{"posts_body": nil, "posts_title": "", "posts_views": 0}, b.Binds())
	})

	t.Run("numbers colliding placeholders", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		b := c.Select().From("posts").Where("id > ? AND id < ?", 1, 10)
		require.Equal(t, "SELECT `posts`.* FROM `posts` WHERE (`posts`.`id` > :posts_id AND `posts`.`id` < :posts_id_2)", b.SQL())
		require.Equal(t, map[string]any{"posts_id": 1, "posts_id_2": 10}, b.Binds())
	})

	t.Run("expands slices", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		b := c.Select().From("posts").Where("id IN ?", []int{4, 5, 6})
		require.Equal(t, "SELECT `posts`.* FROM `posts` WHERE (`posts`.`id` IN (:posts_id_1, :posts_id_2, :posts_id_3))", b.SQL())
		require.Equal(t, map[string]any{"posts_id_1": 4, "posts_id_2": 5, "posts_id_3": 6}, b.Binds())

		b = c.Select().From("posts").Where("id NOT IN (?)", []string{"a"})
		require.Equal(t, "SELECT `posts`.* FROM `posts` WHERE (`posts`.`id` NOT IN (:posts_id_1))", b.SQL())
	})

	t.Run("empty slice matches nothing", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		b := c.Select().From("posts").Where("id IN ?", []int{})
		require.Equal(t, "SELECT `posts`.* FROM `posts` WHERE (`posts`.`id` IN (NULL))", b.SQL())
		require.Empty(t, b.Binds())
	})

	t.Run("value markers and composite values", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		b := c.Insert(map[string]any{
			"title":      "Hello",
			"created_at": query.ValueNow,
			"deleted_at": query.ValueNull,
			"tags":       []string{"go", "sql"},
		}).Into("posts")

		require.Equal(t,
			"INSERT INTO `posts` (`created_at`, `deleted_at`, `tags`, `title`) VALUES (:posts_created_at, NULL, :posts_tags, :posts_title)",
			b.SQL())
		require.Equal(t, map[string]any{
			"posts_created_at": "2024-05-01 10:00:00",
			"posts_tags":       `["go","sql"]`,
			"posts_title":      "Hello",
		}, b.Binds())
	})

	t.Run("time values are bound in UTC", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		b := c.Select().From("posts").Where("created_at > ?", fixedNow)
		require.Equal(t, "2024-05-01 10:00:00", b.Binds()["posts_created_at"])
	})

	t.Run("placeholders inside string literals are ignored", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		b := c.Select().From("posts").Where("title = 'a?b' OR id = ?", 1)
		require.Equal(t, "SELECT `posts`.* FROM `posts` WHERE (title = 'a?b' OR `posts`.`id` = :posts_id)", b.SQL())
	})

	t.Run("ranges and IS comparisons are named after the column", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		b := c.Select().From("posts").
			Where("created_at BETWEEN ? AND ?", "2024-01-01", "2025-01-01").
			MergeNextWhere(true).
			Where("deleted_at IS NOT ?", "NULL").
			MergeNextWhere(true).
			Where("views not between ? and ?", 1, 5)
		require.Equal(t,
			"SELECT `posts`.* FROM `posts` WHERE (`posts`.`created_at` BETWEEN :posts_created_at AND :posts_created_at_2"+
				" AND `posts`.`deleted_at` IS NOT NULL"+
				" AND `posts`.`views` not between :posts_views and :posts_views_2)",
			b.SQL())
		require.Equal(t, map[string]any{
			"posts_created_at":   "2024-01-01",
			"posts_created_at_2": "2025-01-01",
			"posts_views":        1,
			"posts_views_2":      5,
		}, b.Binds())
	})

	t.Run("expressions get a generic placeholder", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		b := c.Select().From("users").Where("LOWER(email) = ?", "a@b.c")
		require.Equal(t, "SELECT `users`.* FROM `users` WHERE (LOWER(email) = :param)", b.SQL())
		require.Equal(t, "a@b.c", b.Binds()["param"])
	})

	t.Run("raw fragments carry their binds", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		b := c.Select("status", "COUNT(*) AS n").From("posts").
			Raw("GROUP BY `posts`.`status` HAVING COUNT(*) > :min", map[string]any{"min": 2}).
			OrderBy("n", "desc")
		require.Equal(t,
			"SELECT `posts`.`status`, COUNT(*) AS `n` FROM `posts` GROUP BY `posts`.`status` HAVING COUNT(*) > :min ORDER BY `n` DESC",
			b.SQL())
		require.Equal(t, map[string]any{"min": 2}, b.Binds())
	})
}

func TestBuilder_Writes(t *testing.T) {
	t.Parallel()

	t.Run("update", func(t *testing.T) {
		t.Parallel()

		c := newConn(t)
		b := c.Update("posts").Set(map[string]any{"title": "New", "updated_at": query.ValueNow}).Where("id = ?", 5)
		require.Equal(t,
			"UPDATE `posts` SET `title` = :posts_title, `updated_at` = :posts_updated_at WHERE (`posts`.`id` = :posts_id)",
			b.SQL())
		require.Equal(t, map[string]any{
			"posts_title":      "New",
			"posts_updated_at": "2024-05-01 10:00:00",
			"posts_id":         5,
		}, b.Binds())
	})

	t.Run("delete limits on mysql only", func(t *testing.T) {
		t.Parallel()

		my := newConn(t)
		require.Equal(t,
			"DELETE FROM `posts` WHERE (`posts`.`id` = :posts_id) LIMIT 1",
			my.Delete().From("posts").Where("id = ?", 1).Limit(1).SQL())

		lite := newConn(t, query.WithDialect(query.SQLite))
		require.Equal(t,
			"DELETE FROM `posts` WHERE (`posts`.`id` = :posts_id)",
			lite.Delete().From("posts").Where("id = ?", 1).Limit(1).SQL())
	})

	t.Run("insert without values", func(t *testing.T) {
		t.Parallel()

		require.Equal(t, "INSERT INTO `t` () VALUES ()", newConn(t).Insert(nil).Into("t").SQL())
		require.Equal(t, "INSERT INTO `t` DEFAULT VALUES",
			newConn(t, query.WithDialect(query.SQLite)).Insert(nil).Into("t").SQL())
	})

	t.Run("table prefix is substituted last", func(t *testing.T) {
		t.Parallel()

		c := newConn(t, query.WithPrefix("wp_"))
		b := c.Select().From("{prefix}posts").Where("id = ?", 1).Raw("AND EXISTS (SELECT 1 FROM {prefix}meta)", nil)
		require.Equal(t,
			"SELECT `wp_posts`.* FROM `wp_posts` WHERE (`wp_posts`.`id` = :prefix_posts_id) AND EXISTS (SELECT 1 FROM wp_meta)",
			b.SQL())
	})
}

func TestBuilder_AssemblyErrors(t *testing.T) {
	t.Parallel()

	c := newConn(t)

	t.Run("missing table", func(t *testing.T) {
		t.Parallel()

		b := c.Select()
		_, _, err := b.Assemble()
		require.ErrorIs(t, err, query.ErrMissingTable)

		var ae *query.AssemblyError
		require.ErrorAs(t, err, &ae)
		require.Equal(t, query.Select, ae.Type)

		require.Panics(t, func() { _ = b.SQL() })
		require.Contains(t, b.String(), "target table is not set")
	})

	t.Run("placeholder count mismatch", func(t *testing.T) {
		t.Parallel()

		_, _, err := c.Select().From("t").Where("a = ? AND b = ?", 1).Assemble()
		require.ErrorIs(t, err, query.ErrPlaceholderMismatch)
	})

	t.Run("update without values", func(t *testing.T) {
		t.Parallel()

		_, _, err := c.Update("t").Where("id = ?", 1).Assemble()
		require.ErrorIs(t, err, query.ErrNoValues)
	})

	t.Run("invalid seed data", func(t *testing.T) {
		t.Parallel()

		_, _, err := query.New(c, query.Update, 42).Assemble()
		require.ErrorIs(t, err, query.ErrInvalidData)
	})
}

func TestHydrate_SharesState(t *testing.T) {
	t.Parallel()

	c := newConn(t)
	base := c.Select().From("posts")
	titles := query.Hydrate(base, func(r query.Row) string { return r["title"].(string) })

	titles.Where("id = ?", 1)
	require.Equal(t, base.SQL(), titles.SQL())
	require.Equal(t, "posts", titles.Table())
	require.Equal(t, query.Select, titles.Type())
}

func TestType_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "SELECT", query.Select.String())
	require.Equal(t, "SELECT DISTINCT", query.SelectDistinct.String())
	require.Equal(t, "INSERT INTO", query.Insert.String())
	require.Equal(t, "UPDATE", query.Update.String())
	require.Equal(t, "DELETE", query.Delete.String())
}
