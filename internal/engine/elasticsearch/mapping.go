package elasticsearch

// DefaultIndexName is the default Elasticsearch index used for listing documents.
const DefaultIndexName = "marketplace_listings"

// buildIndexMapping returns the JSON mapping for the listings index. Text
// fields are folded to ASCII so "Müller" matches "muller".
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "listing_analyzer": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding"]
        },
        "autocomplete_analyzer": {
          "type": "custom",
          "tokenizer": "autocomplete_tokenizer",
          "filter": ["lowercase", "asciifolding"]
        },
        "autocomplete_search": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding"]
        }
      },
      "tokenizer": {
        "autocomplete_tokenizer": {
          "type": "edge_ngram",
          "min_gram": 2,
          "max_gram": 20,
          "token_chars": ["letter", "digit"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id":             { "type": "keyword" },
      "title":          { "type": "text", "analyzer": "listing_analyzer", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 }, "autocomplete": { "type": "text", "analyzer": "autocomplete_analyzer", "search_analyzer": "autocomplete_search" } } },
      "description":    { "type": "text", "analyzer": "listing_analyzer" },
      "slug":           { "type": "keyword" },
      "price":          { "type": "long" },
      "currency":       { "type": "keyword" },
      "condition":      { "type": "keyword" },
      "year":           { "type": "integer" },
      "mileage":        { "type": "integer" },
      "fuel_type":      { "type": "keyword" },
      "transmission":   { "type": "keyword" },
      "emission_class": { "type": "keyword" },
      "country_code":   { "type": "keyword" },
      "category_id":    { "type": "keyword" },
      "category_slug":  { "type": "keyword" },
      "category_name":  { "type": "keyword" },
      "brand_id":       { "type": "keyword" },
      "brand_slug":     { "type": "keyword" },
      "brand_name":     { "type": "text", "analyzer": "listing_analyzer", "fields": { "keyword": { "type": "keyword" } } },
      "model_id":       { "type": "keyword" },
      "model_slug":     { "type": "keyword" },
      "model_name":     { "type": "text", "analyzer": "listing_analyzer" },
      "seller_id":      { "type": "keyword" },
      "image_url":      { "type": "keyword", "index": false },
      "status":         { "type": "keyword" },
      "published_at":   { "type": "date" },
      "deleted_at":     { "type": "date" }
    }
  }
}`
}
