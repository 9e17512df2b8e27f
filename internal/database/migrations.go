package database

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    date_joined TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS profiles (
    user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    avatar TEXT NOT NULL DEFAULT '',
    bio TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    social_telegram TEXT NOT NULL DEFAULT '',
    social_vk TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS licenses (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    short_name TEXT NOT NULL UNIQUE,
    url TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS categories (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    slug TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tags (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    slug TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS schemes (
    id BIGSERIAL PRIMARY KEY,
    title TEXT NOT NULL,
    author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    description TEXT NOT NULL DEFAULT '',
    main_image TEXT NOT NULL DEFAULT '',
    category_id BIGINT REFERENCES categories(id) ON DELETE SET NULL,
    license_id BIGINT NOT NULL REFERENCES licenses(id) ON DELETE RESTRICT,
    difficulty TEXT NOT NULL DEFAULT 'ME',
    size_stitches_width INTEGER,
    size_stitches_height INTEGER,
    number_of_colors INTEGER,
    recommended_canvas TEXT NOT NULL DEFAULT '',
    recommended_threads TEXT NOT NULL DEFAULT '',
    visibility TEXT NOT NULL DEFAULT 'PUB',
    views_count BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS scheme_tags (
    scheme_id BIGINT NOT NULL REFERENCES schemes(id) ON DELETE CASCADE,
    tag_id BIGINT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    PRIMARY KEY (scheme_id, tag_id)
);

CREATE TABLE IF NOT EXISTS scheme_favorites (
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    scheme_id BIGINT NOT NULL REFERENCES schemes(id) ON DELETE CASCADE,
    PRIMARY KEY (user_id, scheme_id)
);

CREATE TABLE IF NOT EXISTS likes (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    scheme_id BIGINT NOT NULL REFERENCES schemes(id) ON DELETE CASCADE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, scheme_id)
);

CREATE TABLE IF NOT EXISTS scheme_files (
    id BIGSERIAL PRIMARY KEY,
    scheme_id BIGINT NOT NULL REFERENCES schemes(id) ON DELETE CASCADE,
    file_path TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    file_type TEXT NOT NULL DEFAULT 'OTH',
    downloads_count BIGINT NOT NULL DEFAULT 0,
    uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS scheme_images (
    id BIGSERIAL PRIMARY KEY,
    scheme_id BIGINT NOT NULL REFERENCES schemes(id) ON DELETE CASCADE,
    image_path TEXT NOT NULL,
    caption TEXT NOT NULL DEFAULT '',
    uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS comments (
    id BIGSERIAL PRIMARY KEY,
    scheme_id BIGINT NOT NULL REFERENCES schemes(id) ON DELETE CASCADE,
    author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    text TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_schemes_author ON schemes(author_id);
CREATE INDEX IF NOT EXISTS idx_schemes_category ON schemes(category_id);
CREATE INDEX IF NOT EXISTS idx_schemes_visibility_created ON schemes(visibility, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_scheme_tags_tag ON scheme_tags(tag_id);
CREATE INDEX IF NOT EXISTS idx_scheme_files_scheme ON scheme_files(scheme_id);
CREATE INDEX IF NOT EXISTS idx_scheme_images_scheme ON scheme_images(scheme_id);
CREATE INDEX IF NOT EXISTS idx_likes_scheme ON likes(scheme_id);
CREATE INDEX IF NOT EXISTS idx_comments_scheme ON comments(scheme_id, created_at);
`

type seedLicense struct {
	name        string
	shortName   string
	url         string
	description string
}

// The canonical Creative Commons set, upserted by short_name on every
// start so a fresh database always has the configured default license.
var ccLicenses = []seedLicense{
	{
		name:        "Attribution (CC BY)",
		shortName:   "CC BY",
		url:         "https://creativecommons.org/licenses/by/4.0/",
		description: "Others may distribute, remix, adapt and build upon the work, even commercially, as long as credit is given.",
	},
	{
		name:        "Attribution-ShareAlike (CC BY-SA)",
		shortName:   "CC BY-SA",
		url:         "https://creativecommons.org/licenses/by-sa/4.0/",
		description: "Others may remix and build upon the work even commercially, as long as credit is given and derivatives are licensed under identical terms.",
	},
	{
		name:        "Attribution-NoDerivs (CC BY-ND)",
		shortName:   "CC BY-ND",
		url:         "https://creativecommons.org/licenses/by-nd/4.0/",
		description: "Others may reuse the work for any purpose, including commercially; it cannot be altered and credit must be given.",
	},
	{
		name:        "Attribution-NonCommercial (CC BY-NC)",
		shortName:   "CC BY-NC",
		url:         "https://creativecommons.org/licenses/by-nc/4.0/",
		description: "Others may remix and build upon the work non-commercially. Derivative works need not be licensed on the same terms.",
	},
	{
		name:        "Attribution-NonCommercial-ShareAlike (CC BY-NC-SA)",
		shortName:   "CC BY-NC-SA",
		url:         "https://creativecommons.org/licenses/by-nc-sa/4.0/",
		description: "Others may remix and build upon the work non-commercially, as long as credit is given and derivatives are licensed under identical terms.",
	},
	{
		name:        "Attribution-NonCommercial-NoDerivs (CC BY-NC-ND)",
		shortName:   "CC BY-NC-ND",
		url:         "https://creativecommons.org/licenses/by-nc-nd/4.0/",
		description: "The most restrictive license: others may only download and share the work with credit, without changing it or using it commercially.",
	},
	{
		name:        "Public Domain Dedication (CC0)",
		shortName:   "CC0",
		url:         "https://creativecommons.org/publicdomain/zero/1.0/",
		description: "The author waives all copyright, placing the work in the public domain.",
	},
}
