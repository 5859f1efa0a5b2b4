package server

import "html/template"

// layoutHTML wraps every page. The element ids and nesting mirror the
// reference client site: the portal heading sits at
// #middle/div[3]/h2, the greeting at #membermenu/a[1] and the login error
// at #login/label[2]/aside/p.
const layoutHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Reference Site - {{.Title}}</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            max-width: 800px;
            margin: 50px auto;
            padding: 20px;
            background: #f5f5f5;
        }
        #membermenu { text-align: right; margin-bottom: 20px; }
        #membermenu a { margin-left: 12px; color: #4285f4; }
        #middle {
            background: white;
            padding: 30px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        label { display: block; margin: 12px 0; }
        input { display: block; padding: 8px; width: 280px; }
        aside p { color: #721c24; background: #f8d7da; padding: 8px; border-radius: 4px; }
        button {
            background: #4285f4;
            color: white;
            border: none;
            padding: 12px 24px;
            border-radius: 4px;
            cursor: pointer;
            font-size: 16px;
        }
    </style>
</head>
<body>
    <div id="membermenu">
        {{- if .User}}
        <a id="welcomeLink" href="/client/portal">Welcome, {{.DisplayName}}</a>
        <a href="/client/logout">Logout</a>
        {{- else}}
        <a id="clientLogin" href="/client/login">Client Login</a>
        {{- end}}
    </div>
    <div id="middle">
        {{template "content" .}}
    </div>
</body>
</html>`

const homeHTML = `{{define "content"}}
        <div><h1>Reference Site</h1></div>
        <div><p>Use the Client Login link to sign in.</p></div>
{{end}}`

const loginHTML = `{{define "content"}}
        <div><h1>Client Login</h1></div>
        <div>
            <form id="login" method="post" action="/client/login">
                <label>Username
                    <input id="username" name="username" type="text" autocomplete="username">
                </label>
                <label>Password
                    <input id="password" name="password" type="password" autocomplete="current-password">
                    {{- if .Error}}
                    <aside><p id="loginError">{{.Error}}</p></aside>
                    {{- end}}
                </label>
                <button id="btnSubmit" type="submit">Submit</button>
            </form>
        </div>
{{end}}`

const portalHTML = `{{define "content"}}
        <div><h1>Account</h1></div>
        <div><p>Signed in as {{.User}}.</p></div>
        <div><h2 id="portalHeading">Client Portal</h2></div>
{{end}}`

var (
	homeTemplate   = template.Must(template.Must(template.New("layout").Parse(layoutHTML)).Parse(homeHTML))
	loginTemplate  = template.Must(template.Must(template.New("layout").Parse(layoutHTML)).Parse(loginHTML))
	portalTemplate = template.Must(template.Must(template.New("layout").Parse(layoutHTML)).Parse(portalHTML))
)

// pageData is rendered by every template.
type pageData struct {
	Title       string
	User        string
	DisplayName string
	Error       string
}
