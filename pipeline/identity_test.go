package pipeline

import (
	"testing"

	"github.com/aluiziolira/go-scrape-prices/models"
)

func offer(name, image, store string) models.StoreOffer {
	return models.StoreOffer{
		ProductName:  name,
		ProductImage: image,
		StoreName:    store,
		ProductLink:  "https://shop.example/" + store,
		Price:        "1,00 €",
		UnitPrice:    "1,00 €/kg",
	}
}

func TestIdentityStableAcrossStores(t *testing.T) {
	r := NewIdentityRegistry()

	first := r.Resolve(offer("Milk 1L", "https://img.example/milk.jpg", "store-a"))
	second := r.Resolve(offer("  Milk 1L ", "https://img.example/milk.jpg\n", "store-b"))
	third := r.Resolve(offer("Milk 1L", "https://img.example/milk.jpg", "store-c"))

	if first != 1 {
		t.Fatalf("first id = %d, want 1", first)
	}
	if second != first || third != first {
		t.Fatalf("ids = %d/%d/%d, want all %d", first, second, third, first)
	}
	if r.Len() != 1 {
		t.Fatalf("distinct products = %d, want 1", r.Len())
	}
}

func TestIdentityFirstSeenOrder(t *testing.T) {
	r := NewIdentityRegistry()
	inputs := []models.StoreOffer{
		offer("Bread", "img/bread.jpg", "a"),
		offer("Cheese", "img/cheese.jpg", "a"),
		offer("Bread", "img/bread.jpg", "b"),
		offer("Bread", "img/bread-large.jpg", "a"),
		offer("Cheese", "img/cheese.jpg", "c"),
		offer("Apples", "img/apples.jpg", "a"),
	}
	want := []int{1, 2, 1, 3, 2, 4}

	for i, in := range inputs {
		if got := r.Resolve(in); got != want[i] {
			t.Fatalf("offer %d (%s): id = %d, want %d", i, in.ProductName, got, want[i])
		}
	}
}

func TestIdentitySentinelFieldsStillKey(t *testing.T) {
	r := NewIdentityRegistry()
	a := r.Resolve(offer(models.NotFound, models.NotFound, "a"))
	b := r.Resolve(offer(models.NotFound, models.NotFound, "b"))
	c := r.Resolve(offer(models.NotFound, "img/x.jpg", "a"))
	if a != b {
		t.Fatalf("identical sentinel keys should share an id: %d vs %d", a, b)
	}
	if c == a {
		t.Fatalf("different image should get a new id")
	}
}

func TestLookup(t *testing.T) {
	r := NewIdentityRegistry()
	o := offer("Eggs", "img/eggs.jpg", "a")
	if _, ok := r.Lookup(KeyOf(o)); ok {
		t.Fatalf("unexpected id before resolve")
	}
	id := r.Resolve(o)
	if got, ok := r.Lookup(KeyOf(o)); !ok || got != id {
		t.Fatalf("lookup = %d/%v, want %d", got, ok, id)
	}
}
