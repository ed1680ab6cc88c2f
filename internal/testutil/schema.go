package testutil

// ShopSchema creates the tables of ShopModel. It is written for SQLite.
const ShopSchema = `
CREATE TABLE CUSTOMERS (
	ID         INTEGER PRIMARY KEY,
	NAME       TEXT,
	EMAIL      TEXT,
	SINCE_DATE TIMESTAMP
);
CREATE TABLE ORDERS (
	ID            INTEGER PRIMARY KEY,
	CUSTOMER_NAME TEXT,
	TOTAL         DECIMAL,
	CREATED_AT    TIMESTAMP,
	CUSTOMER_ID   INTEGER REFERENCES CUSTOMERS(ID)
);
CREATE TABLE ORDER_ADDRESSES (
	ORDER_ID INTEGER REFERENCES ORDERS(ID),
	STREET   TEXT,
	CITY     TEXT
);
CREATE TABLE ORDER_ITEMS (
	ORDER_ID INTEGER REFERENCES ORDERS(ID),
	LINE_NO  INTEGER,
	PRODUCT  TEXT,
	QUANTITY INTEGER,
	PRIMARY KEY (ORDER_ID, LINE_NO)
);
CREATE TABLE PRODUCTS (
	ID   INTEGER PRIMARY KEY,
	NAME TEXT
);
CREATE TABLE TAGS (
	ID    INTEGER PRIMARY KEY,
	LABEL TEXT
);
CREATE TABLE PRODUCT_TAGS (
	PRODUCT_ID INTEGER REFERENCES PRODUCTS(ID),
	TAG_ID     INTEGER REFERENCES TAGS(ID)
);
`
