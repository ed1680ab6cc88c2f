package testutil

import "github.com/roach88/edmsql/internal/edm"

// Namespace of the sample shop model.
const Namespace = "shop"

// ShopModel builds the sample catalog shared by package tests:
//
//	Customer 1--* Order 1--* OrderItem      (composite key orderId+lineNo)
//	Order    1--1 Address                   (complex, own table)
//	Product  *--* Tag                       (through PRODUCT_TAGS)
//
// Order.note is transient: it exists in the model but has no column.
func ShopModel() *edm.Model {
	m := edm.NewModel()

	m.MustAdd(&edm.StructuralType{
		Namespace: Namespace,
		Name:      "Customer",
		Keys:      []string{"id"},
		Properties: []edm.Property{
			{Name: "id", Kind: edm.KindScalar, Type: edm.TypeInt64},
			{Name: "name", Kind: edm.KindScalar, Type: edm.TypeString},
			{Name: "email", Kind: edm.KindScalar, Type: edm.TypeString},
			{Name: "since", Kind: edm.KindScalar, Type: edm.TypeDateTime},
			{Name: "orders", Kind: edm.KindNavigation, Target: "shop.Order", Collection: true},
		},
	}, edm.TableBinding{
		Table: "CUSTOMERS",
		Columns: map[string]edm.ColumnDef{
			"id":    {Name: "ID", SQLType: "BIGINT"},
			"name":  {Name: "NAME", SQLType: "VARCHAR"},
			"email": {Name: "EMAIL", SQLType: "VARCHAR"},
			"since": {Name: "SINCE_DATE", SQLType: "TIMESTAMP"},
		},
		Joins: map[string][]string{"shop.Order": {"ID"}},
	})

	m.MustAdd(&edm.StructuralType{
		Namespace: Namespace,
		Name:      "Order",
		Keys:      []string{"id"},
		Properties: []edm.Property{
			{Name: "id", Kind: edm.KindScalar, Type: edm.TypeInt64},
			{Name: "customerName", Kind: edm.KindScalar, Type: edm.TypeString},
			{Name: "total", Kind: edm.KindScalar, Type: edm.TypeDecimal},
			{Name: "createdAt", Kind: edm.KindScalar, Type: edm.TypeDateTime},
			{Name: "note", Kind: edm.KindScalar, Type: edm.TypeString},
			{Name: "shipTo", Kind: edm.KindComplex, Target: "shop.Address"},
			{Name: "customer", Kind: edm.KindNavigation, Target: "shop.Customer"},
			{Name: "items", Kind: edm.KindNavigation, Target: "shop.OrderItem", Collection: true},
		},
	}, edm.TableBinding{
		Table: "ORDERS",
		Columns: map[string]edm.ColumnDef{
			"id":           {Name: "ID", SQLType: "BIGINT"},
			"customerName": {Name: "CUSTOMER_NAME", SQLType: "VARCHAR"},
			"total":        {Name: "TOTAL", SQLType: "DECIMAL"},
			"createdAt":    {Name: "CREATED_AT", SQLType: "TIMESTAMP"},
		},
		Joins: map[string][]string{
			"shop.Customer":  {"CUSTOMER_ID"},
			"shop.Address":   {"ID"},
			"shop.OrderItem": {"ID"},
		},
	})

	m.MustAdd(&edm.StructuralType{
		Namespace: Namespace,
		Name:      "Address",
		Complex:   true,
		Properties: []edm.Property{
			{Name: "street", Kind: edm.KindScalar, Type: edm.TypeString},
			{Name: "city", Kind: edm.KindScalar, Type: edm.TypeString},
		},
	}, edm.TableBinding{
		Table: "ORDER_ADDRESSES",
		Columns: map[string]edm.ColumnDef{
			"street": {Name: "STREET", SQLType: "VARCHAR"},
			"city":   {Name: "CITY", SQLType: "VARCHAR"},
		},
		Joins: map[string][]string{"shop.Order": {"ORDER_ID"}},
	})

	m.MustAdd(&edm.StructuralType{
		Namespace: Namespace,
		Name:      "OrderItem",
		Keys:      []string{"orderId", "lineNo"},
		Properties: []edm.Property{
			{Name: "orderId", Kind: edm.KindScalar, Type: edm.TypeInt64},
			{Name: "lineNo", Kind: edm.KindScalar, Type: edm.TypeInt32},
			{Name: "product", Kind: edm.KindScalar, Type: edm.TypeString},
			{Name: "quantity", Kind: edm.KindScalar, Type: edm.TypeInt32},
			{Name: "order", Kind: edm.KindNavigation, Target: "shop.Order"},
		},
	}, edm.TableBinding{
		Table: "ORDER_ITEMS",
		Columns: map[string]edm.ColumnDef{
			"orderId":  {Name: "ORDER_ID", SQLType: "BIGINT"},
			"lineNo":   {Name: "LINE_NO", SQLType: "INTEGER"},
			"product":  {Name: "PRODUCT", SQLType: "VARCHAR"},
			"quantity": {Name: "QUANTITY", SQLType: "INTEGER"},
		},
		Joins: map[string][]string{"shop.Order": {"ORDER_ID"}},
	})

	m.MustAdd(&edm.StructuralType{
		Namespace: Namespace,
		Name:      "Product",
		Keys:      []string{"id"},
		Properties: []edm.Property{
			{Name: "id", Kind: edm.KindScalar, Type: edm.TypeInt64},
			{Name: "name", Kind: edm.KindScalar, Type: edm.TypeString},
			{Name: "tags", Kind: edm.KindNavigation, Target: "shop.Tag", Collection: true},
		},
	}, edm.TableBinding{
		Table: "PRODUCTS",
		Columns: map[string]edm.ColumnDef{
			"id":   {Name: "ID", SQLType: "BIGINT"},
			"name": {Name: "NAME", SQLType: "VARCHAR"},
		},
		Joins: map[string][]string{"shop.Tag": {"ID"}},
		MappingTables: map[string]edm.MappingTable{
			"shop.Tag": {Table: "PRODUCT_TAGS", JoinColumns: []string{"PRODUCT_ID"}},
		},
	})

	m.MustAdd(&edm.StructuralType{
		Namespace: Namespace,
		Name:      "Tag",
		Keys:      []string{"id"},
		Properties: []edm.Property{
			{Name: "id", Kind: edm.KindScalar, Type: edm.TypeInt64},
			{Name: "label", Kind: edm.KindScalar, Type: edm.TypeString},
			{Name: "products", Kind: edm.KindNavigation, Target: "shop.Product", Collection: true},
		},
	}, edm.TableBinding{
		Table: "TAGS",
		Columns: map[string]edm.ColumnDef{
			"id":    {Name: "ID", SQLType: "BIGINT"},
			"label": {Name: "LABEL", SQLType: "VARCHAR"},
		},
		Joins: map[string][]string{"shop.Product": {"ID"}},
		MappingTables: map[string]edm.MappingTable{
			"shop.Product": {Table: "PRODUCT_TAGS", JoinColumns: []string{"TAG_ID"}},
		},
	})

	return m
}

// MustType resolves a type of the shop model by short name. Panics if absent.
func MustType(m *edm.Model, name string) *edm.StructuralType {
	t, ok := m.Lookup(name)
	if !ok {
		panic("testutil: unknown type " + name)
	}
	return t
}
