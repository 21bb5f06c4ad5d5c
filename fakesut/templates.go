package fakesut

import "html/template"

const layout = `{{define "layout"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
  .logo { cursor: pointer; }
  nav { display: flex; }
  #more-menu { display: none; }
  #more-menu.active { display: block; }
</style>
</head>
<body>
<header>
  <a id="logo" class="logo" href="/" aria-label="Home">UI E2E</a>
  <nav>
    <a id="nav-about" href="/about">About</a>
    <a id="nav-help" href="/help">Help</a>
    <a id="nav-status" href="/status" target="_blank" rel="noopener">Status</a>
    <a id="nav-more" href="#" data-target="more-menu">More</a>
  </nav>
  <div id="more-menu">
    <p class="menu-title">More links</p>
    <button type="button" class="menu-close">Close</button>
  </div>
  <script>
  (function () {
    var menu = document.getElementById("more-menu");
    document.getElementById("nav-more").addEventListener("click", function (e) {
      e.preventDefault();
      menu.classList.add("active");
    });
    menu.querySelector(".menu-close").addEventListener("click", function () {
      menu.classList.remove("active");
    });
  })();
  </script>
</header>
<main>{{template "content" .}}</main>
</body>
</html>{{end}}`

const loginContent = `{{define "content"}}
{{if .Locked}}
  <p id="lockout" role="alert">{{.Cfg.LockoutMessage}}</p>
{{else}}
  <form method="post" action="/login">
    <label for="email">{{.Cfg.EmailLabel}}</label>
    <input id="email" name="email" type="email" autocomplete="username">
    <label for="password">{{.Cfg.PasswordLabel}}</label>
    <input id="password" name="password" type="password" autocomplete="current-password">
    <button type="submit">{{.Cfg.LoginButton}}</button>
  </form>
  {{if .Message}}<p id="login-error">{{.Message}}</p>{{end}}
{{end}}
{{end}}`

const mainContent = `{{define "content"}}
  <h1>Welcome {{.Email}}</h1>
  <a id="page-link" href="{{.Cfg.PagePath}}">{{.Cfg.PageLinkText}}</a>
  <form method="post" action="/logout"><button type="submit">Sign out</button></form>
{{end}}`

const pageContent = `{{define "content"}}
  <h1>{{.Cfg.PageTitle}}</h1>
  <a id="page-link" href="{{.Cfg.PagePath}}">{{.Cfg.PageLinkText}}</a>
  {{range .Actions}}
  <button type="button" data-action="{{.Name}}">{{.Label}}</button>
  {{end}}
  <p id="action-result"></p>
  <script>
  document.querySelectorAll("button[data-action]").forEach(function (b) {
    b.addEventListener("click", function () {
      fetch("/action/" + b.dataset.action, {method: "POST", credentials: "same-origin"})
        .then(function (r) { document.getElementById("action-result").textContent = r.status; });
    });
  });
  </script>
{{end}}`

const statusContent = `{{define "content"}}
  <h1>{{.Heading}}</h1>
  <p>{{.Message}}</p>
{{end}}`

func mustTemplate(content string) *template.Template {
	return template.Must(template.Must(template.New("layout").Parse(layout)).Parse(content))
}

var (
	loginTmpl  = mustTemplate(loginContent)
	mainTmpl   = mustTemplate(mainContent)
	pageTmpl   = mustTemplate(pageContent)
	statusTmpl = mustTemplate(statusContent)
)
