package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline data if DB is empty (categories/plans/users)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','SELLER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

-- Categories
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase ON categories(LOWER(name));

-- Products (furniture build plans)
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  seller_id TEXT NOT NULL REFERENCES users(id),
  title TEXT NOT NULL,
  description TEXT,
  price NUMERIC NOT NULL CHECK (price >= 0),
  file_ref TEXT NOT NULL,
  images_json TEXT,
  status TEXT NOT NULL DEFAULT 'DRAFT'
    CHECK (status IN ('DRAFT','PUBLISHED','ARCHIVED','SUSPENDED')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_seller   ON products(seller_id);
CREATE INDEX IF NOT EXISTS idx_products_status   ON products(status);
CREATE INDEX IF NOT EXISTS idx_products_title    ON products(LOWER(title));

-- Cart (one row per buyer+plan; price snapshot taken at add time)
CREATE TABLE IF NOT EXISTS cart_items(
  buyer_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  unit_price_snapshot NUMERIC NOT NULL,
  qty INTEGER NOT NULL CHECK (qty >= 1),
  added_at TEXT DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (buyer_id, product_id)
);

-- Orders (immutable financial snapshot)
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  buyer_id TEXT NOT NULL REFERENCES users(id),
  status TEXT NOT NULL DEFAULT 'PENDING'
    CHECK (status IN ('PENDING','PROCESSING','COMPLETED','FAILED','CANCELLED')),
  subtotal NUMERIC NOT NULL,
  platform_fee NUMERIC NOT NULL,
  total NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'USD',
  payment_intent_ref TEXT DEFAULT '',
  payment_status TEXT DEFAULT '',
  provider_error TEXT DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  paid_at TEXT,
  completed_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_orders_buyer      ON orders(buyer_id);
CREATE INDEX IF NOT EXISTS idx_orders_intent     ON orders(payment_intent_ref);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

-- Per-day sequence backing the ORD-YYYYMMDD-NNN order numbers
CREATE TABLE IF NOT EXISTS order_counters(
  day TEXT PRIMARY KEY,
  seq INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS order_items(
  order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  seller_id  TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  qty INTEGER NOT NULL CHECK (qty >= 1),
  title_snapshot TEXT NOT NULL,
  description_snapshot TEXT,
  PRIMARY KEY (order_id, product_id)
);

-- Download entitlements (minted once per order item on completion)
CREATE TABLE IF NOT EXISTS download_tokens(
  id TEXT PRIMARY KEY,
  token TEXT NOT NULL UNIQUE,
  order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  buyer_id   TEXT NOT NULL,
  download_limit INTEGER NOT NULL,
  download_count INTEGER NOT NULL DEFAULT 0 CHECK (download_count <= download_limit),
  expires_at TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_download_at TEXT,
  last_ip TEXT DEFAULT '',
  last_user_agent TEXT DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_tokens_order ON download_tokens(order_id);
CREATE INDEX IF NOT EXISTS idx_tokens_buyer ON download_tokens(buyer_id);

-- Gateway webhook dedupe (at-least-once delivery)
CREATE TABLE IF NOT EXISTS webhook_events(
  event_id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  order_id TEXT,
  processed_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Reviews
CREATE TABLE IF NOT EXISTS reviews(
  id TEXT PRIMARY KEY,
  order_id   TEXT NOT NULL REFERENCES orders(id),
  product_id TEXT NOT NULL REFERENCES products(id),
  buyer_id   TEXT NOT NULL REFERENCES users(id),
  seller_id  TEXT NOT NULL,
  rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
  title TEXT DEFAULT '',
  comment TEXT NOT NULL,
  pros TEXT DEFAULT '',
  cons TEXT DEFAULT '',
  status TEXT NOT NULL DEFAULT 'PENDING_MODERATION'
    CHECK (status IN ('PENDING_MODERATION','PUBLISHED','FLAGGED','REMOVED')),
  is_verified INTEGER NOT NULL DEFAULT 0,
  helpful_count INTEGER NOT NULL DEFAULT 0,
  not_helpful_count INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(order_id, product_id, buyer_id)
);
CREATE INDEX IF NOT EXISTS idx_reviews_product ON reviews(product_id);
CREATE INDEX IF NOT EXISTS idx_reviews_status  ON reviews(status);

CREATE TABLE IF NOT EXISTS review_votes(
  review_id TEXT NOT NULL REFERENCES reviews(id) ON DELETE CASCADE,
  user_id   TEXT NOT NULL,
  vote TEXT NOT NULL CHECK (vote IN ('HELPFUL','NOT_HELPFUL')),
  PRIMARY KEY (review_id, user_id)
);

CREATE TABLE IF NOT EXISTS review_responses(
  review_id TEXT NOT NULL UNIQUE REFERENCES reviews(id) ON DELETE CASCADE,
  seller_id TEXT NOT NULL,
  comment TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Favorites (buyer saves plans for later)
CREATE TABLE IF NOT EXISTS favorites(
  buyer_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (buyer_id, product_id)
);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo categories/plans")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO categories(id,name) VALUES
	  ('tables','Tables & Desks'),
	  ('seating','Chairs & Benches'),
	  ('storage','Shelving & Storage'),
	  ('outdoor','Outdoor & Garden')`)

	tx.MustExec(`INSERT INTO users(id,email,name,password_hash,role) VALUES
	  ('u-woodshop','woodshop@furnibles.test','Hilltop Woodshop','*seed*','SELLER')`)

	tx.MustExec(`INSERT INTO products(id,category_id,seller_id,title,description,price,file_ref,images_json,status) VALUES
	  ('plan-farm-table','tables','u-woodshop','Farmhouse Dining Table','Full cut list, joinery details and finishing guide for a 6-seat farmhouse table.',150.00,'plans/plan-farm-table/v3.pdf','["plans/plan-farm-table/main.jpg"]','PUBLISHED'),
	  ('plan-adirondack','seating','u-woodshop','Adirondack Chair','Templates and step-by-step assembly for a classic adirondack chair.',100.00,'plans/plan-adirondack/v1.pdf','["plans/plan-adirondack/main.jpg"]','PUBLISHED'),
	  ('plan-bookshelf','storage','u-woodshop','Ladder Bookshelf','Five-shelf leaning bookshelf, plywood friendly.',45.00,'plans/plan-bookshelf/v2.pdf','[]','PUBLISHED'),
	  ('plan-workbench','tables','u-woodshop','Garage Workbench','Heavy workbench plan, still in review.',80.00,'plans/plan-workbench/v1.pdf','[]','DRAFT')`)

	return tx.Commit()
}

// seedUsers ensures demo buyers, a seller and an admin exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-alice", "alice@furnibles.test", "Alice", "USER", "Passw0rd!"),
		mk("u-bob", "bob@furnibles.test", "Bob", "USER", "Passw0rd!"),
		mk("u-admin", "admin@furnibles.test", "Admin", "ADMIN", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}
	// Give the seed seller a real login too
	h, _ := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), 12)
	if _, err := tx.Exec(`UPDATE users SET password_hash=? WHERE id='u-woodshop' AND password_hash='*seed*'`, string(h)); err != nil {
		return err
	}

	return tx.Commit()
}
