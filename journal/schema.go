package journal

const Schema = `
CREATE TABLE IF NOT EXISTS settlements (
	entry_id TEXT PRIMARY KEY,
	agent TEXT NOT NULL,
	date TEXT NOT NULL,
	action TEXT NOT NULL,
	symbol TEXT NOT NULL,
	amount REAL NOT NULL,
	fill_price REAL NOT NULL,
	cash REAL NOT NULL,
	holding REAL NOT NULL,
	time DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_settlements_agent_date ON settlements(agent, date);
CREATE INDEX IF NOT EXISTS idx_settlements_time ON settlements(time);
`
