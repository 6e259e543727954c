// Package docs provides generated OpenAPI documentation.
//
// Carte de financement API
//
//	@title			Carte de financement API
//	@version		1.0
//	@description	French financing document analysis API: document processing, type catalog and synthesis.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/Amazighozn-ti/Synthese-carte-financement
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8380
//	@BasePath	/
//
//	@schemes	http
package docs

//go:generate swag init -g ../cmd/cartefin/serve.go -o ./swagger --parseDependency --parseInternal
